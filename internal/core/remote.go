package core

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"cellseg-pipeline/internal/geometry"
)

// ndarray is the wire form of an array: a shape plus base64 of the raw
// little-endian samples.
type ndarray struct {
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
	Data  string `json:"data"`
}

type segmentRequest struct {
	Image  ndarray `json:"image"`
	UseWSI bool    `json:"use_wsi"`
}

type segmentResponse struct {
	Mask ndarray `json:"mask"`
}

type annotateRequest struct {
	Image   ndarray  `json:"image"`
	Mask    ndarray  `json:"mask"`
	Markers []string `json:"markers"`
	MPP     float64  `json:"mpp"`
}

type annotateResponse struct {
	CellTypes []string `json:"cell_types"`
}

// RemoteSegmenter calls a segmentation model served over HTTP.
type RemoteSegmenter struct {
	client  *resty.Client
	timeout time.Duration
}

func NewRemoteSegmenter(baseURL string, timeout time.Duration) *RemoteSegmenter {
	return &RemoteSegmenter{
		client:  resty.New().SetBaseURL(baseURL),
		timeout: timeout,
	}
}

func (s *RemoteSegmenter) Segment(ctx context.Context, img *geometry.Composite, useWSI bool) (*geometry.Mask, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := segmentRequest{
		Image:  encodeFloat32([]int{img.H, img.W, 3}, img.Pix),
		UseWSI: useWSI,
	}

	var body segmentResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		Post("/v1/segment")
	if err != nil {
		return nil, fmt.Errorf("%w: segment: %v", ErrCollaborator, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: segment returned status %d: %s", ErrCollaborator, res.StatusCode(), res.String())
	}

	labels, err := decodeInt32(body.Mask)
	if err != nil {
		return nil, fmt.Errorf("%w: segment: %v", ErrCollaborator, err)
	}
	if len(body.Mask.Shape) != 2 || body.Mask.Shape[0] != img.H || body.Mask.Shape[1] != img.W {
		return nil, fmt.Errorf("%w: segment returned mask shape %v for %dx%d input", ErrCollaborator, body.Mask.Shape, img.H, img.W)
	}

	return geometry.NewMask(img.H, img.W, labels)
}

// RemoteAnnotator calls a cell-type classification model served over HTTP.
type RemoteAnnotator struct {
	client  *resty.Client
	timeout time.Duration
}

func NewRemoteAnnotator(baseURL string, timeout time.Duration) *RemoteAnnotator {
	return &RemoteAnnotator{
		client:  resty.New().SetBaseURL(baseURL),
		timeout: timeout,
	}
}

func (a *RemoteAnnotator) Annotate(ctx context.Context, img *geometry.Volume, mask *geometry.Mask, markers []string, mpp float64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := annotateRequest{
		Image:   encodeFloat32(img.Shape, img.Data),
		Mask:    encodeInt32([]int{mask.H, mask.W}, mask.Labels),
		Markers: markers,
		MPP:     mpp,
	}

	var body annotateResponse
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		Post("/v1/annotate")
	if err != nil {
		return nil, fmt.Errorf("%w: annotate: %v", ErrCollaborator, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: annotate returned status %d: %s", ErrCollaborator, res.StatusCode(), res.String())
	}

	return body.CellTypes, nil
}

func encodeFloat32(shape []int, data []float32) ndarray {
	raw := make([]byte, 4*len(data))
	for i, s := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return ndarray{Shape: shape, DType: "<f4", Data: base64.StdEncoding.EncodeToString(raw)}
}

func encodeInt32(shape []int, data []int32) ndarray {
	raw := make([]byte, 4*len(data))
	for i, s := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(s))
	}
	return ndarray{Shape: shape, DType: "<i4", Data: base64.StdEncoding.EncodeToString(raw)}
}

func decodeInt32(arr ndarray) ([]int32, error) {
	if arr.DType != "<i4" {
		return nil, fmt.Errorf("unexpected array dtype %q", arr.DType)
	}
	raw, err := base64.StdEncoding.DecodeString(arr.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding array data: %v", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("array data length %d is not a multiple of 4", len(raw))
	}
	out := make([]int32, len(raw)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

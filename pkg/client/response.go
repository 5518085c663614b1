package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a body is valid JSON but lacks a
// field the Bulk API always sends.
var ErrMalformedResponse = errors.New("malformed bulk response")

// Meta carries the status code of a response.
type Meta struct {
	Code int `json:"code"`
}

// BulkResponse is the decoded body of one Bulk API call.
type BulkResponse struct {
	Meta     Meta `json:"meta"`
	Response struct {
		ResponseList []WidgetResponse `json:"response_list"`
	} `json:"response"`
}

// Code returns the batch-level status code.
func (r *BulkResponse) Code() int {
	return r.Meta.Code
}

// Responses returns the per-request responses, in request order.
func (r *BulkResponse) Responses() []WidgetResponse {
	return r.Response.ResponseList
}

// WidgetResponse is the response to a single request of a batch.
type WidgetResponse struct {
	Meta Meta `json:"meta"`

	// Body is the complete entry as returned by the API.
	Body json.RawMessage `json:"-"`
}

// Code returns the request-level status code.
func (w WidgetResponse) Code() int {
	return w.Meta.Code
}

// wireMeta distinguishes a missing code from code 0.
type wireMeta struct {
	Code *int `json:"code"`
}

type wireBulk struct {
	Meta     *wireMeta `json:"meta"`
	Response *struct {
		ResponseList *[]json.RawMessage `json:"response_list"`
	} `json:"response"`
}

// decodeBulkResponse parses a Bulk API body. The outer meta.code is always
// required; response.response_list and a meta.code per entry are required
// when the outer code is CodeOK.
func decodeBulkResponse(body []byte) (*BulkResponse, error) {
	var wire wireBulk
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	if wire.Meta == nil || wire.Meta.Code == nil {
		return nil, fmt.Errorf("%w: missing meta.code", ErrMalformedResponse)
	}

	resp := &BulkResponse{Meta: Meta{Code: *wire.Meta.Code}}
	if resp.Meta.Code != CodeOK {
		return resp, nil
	}

	if wire.Response == nil || wire.Response.ResponseList == nil {
		return nil, fmt.Errorf("%w: missing response.response_list", ErrMalformedResponse)
	}

	entries := *wire.Response.ResponseList
	resp.Response.ResponseList = make([]WidgetResponse, 0, len(entries))
	for i, raw := range entries {
		var entry struct {
			Meta *wireMeta `json:"meta"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("%w: response_list[%d]: %v", ErrMalformedResponse, i, err)
		}
		if entry.Meta == nil || entry.Meta.Code == nil {
			return nil, fmt.Errorf("%w: missing response_list[%d].meta.code", ErrMalformedResponse, i)
		}
		resp.Response.ResponseList = append(resp.Response.ResponseList, WidgetResponse{
			Meta: Meta{Code: *entry.Meta.Code},
			Body: append(json.RawMessage(nil), raw...),
		})
	}

	return resp, nil
}

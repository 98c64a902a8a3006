// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethersphere/authdisc/pkg/jsonhttp"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestRespond(t *testing.T) {
	for _, tc := range []struct {
		name     string
		code     int
		response interface{}
		wantCode int
		wantBody string
	}{
		{
			name:     "nil response",
			code:     http.StatusBadRequest,
			wantCode: http.StatusBadRequest,
			wantBody: `{"message":"Bad Request","code":400}`,
		},
		{
			name:     "zero status code",
			wantCode: http.StatusOK,
			wantBody: `{"message":"OK","code":200}`,
		},
		{
			name:     "string response",
			code:     http.StatusNotFound,
			response: "authority not found",
			wantCode: http.StatusNotFound,
			wantBody: `{"message":"authority not found","code":404}`,
		},
		{
			name:     "error response",
			code:     http.StatusInternalServerError,
			response: errors.New("resolver <down>"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"message":"resolver <down>","code":500}`,
		},
		{
			name:     "stringer response",
			code:     http.StatusConflict,
			response: stringer("busy"),
			wantCode: http.StatusConflict,
			wantBody: `{"message":"busy","code":409}`,
		},
		{
			name: "struct response",
			code: http.StatusOK,
			response: struct {
				Count int `json:"count"`
			}{Count: 3},
			wantCode: http.StatusOK,
			wantBody: `{"count":3}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			jsonhttp.Respond(w, tc.code, tc.response)

			if got := w.Result().StatusCode; got != tc.wantCode {
				t.Errorf("got status code %d, want %d", got, tc.wantCode)
			}
			if got := w.Header().Get("Content-Type"); got != jsonhttp.DefaultContentTypeHeader {
				t.Errorf("got content type %q, want %q", got, jsonhttp.DefaultContentTypeHeader)
			}
			if got := w.Body.String(); got != tc.wantBody+"\n" {
				t.Errorf("got body %q, want %q", got, tc.wantBody+"\n")
			}
		})
	}
}

func TestRespondKeepsContentType(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("Content-Type", "application/problem+json")

	jsonhttp.OK(w, nil)

	if got := w.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("got content type %q", got)
	}
}

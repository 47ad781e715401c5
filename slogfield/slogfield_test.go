// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type logFields[T any] struct {
	Value  T   `json:"value"`
	Values []T `json:"values"`
}

func TestJsonHandler(t *testing.T) {
	testCases := []struct {
		Name     string
		Attrs    []any
		Validate func(*testing.T, *bytes.Buffer)
	}{
		{
			Name: "any",
			Attrs: []any{
				Any("value", true),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res logFields[any]
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, true, res.Value) {
					return
				}
			},
		},
		{
			Name: "bool",
			Attrs: []any{
				Bool("value", true),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res logFields[bool]
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, true, res.Value) {
					return
				}
			},
		},
		{
			Name: "duration",
			Attrs: []any{
				Duration("value", 5*time.Second),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res logFields[time.Duration]
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, 5*time.Second, res.Value) {
					return
				}
			},
		},
		{
			Name: "error",
			Attrs: []any{
				Error(errors.New("hello, world")),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res struct {
					Err string `json:"error"`
				}
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, "hello, world", res.Err) {
					return
				}
			},
		},
		{
			Name: "int",
			Attrs: []any{
				Int("value", 1),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res logFields[int]
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, 1, res.Value) {
					return
				}
			},
		},
		{
			Name: "string and strings",
			Attrs: []any{
				String("value", "world"),
				Strings("values", []string{"a", "b"}),
			},
			Validate: func(t *testing.T, buf *bytes.Buffer) {
				var res logFields[string]
				err := json.Unmarshal(buf.Bytes(), &res)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, "world", res.Value) {
					return
				}
				if !assert.Equal(t, []string{"a", "b"}, res.Values) {
					return
				}
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.Name, func(t *testing.T) {
			var buf bytes.Buffer
			h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{})
			logger := slog.New(h)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			logger.InfoContext(ctx, "test", testCase.Attrs...)

			testCase.Validate(t, &buf)
		})
	}
}

package security

import (
	"errors"
	"strings"
	"testing"
)

type threadBody struct {
	Tweets []string `json:"tweets"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var got threadBody
	if err := DecodeJSON(strings.NewReader(`{"tweets":["one","two"]}`), &got); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(got.Tweets) != 2 || got.Tweets[1] != "two" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestBodyLimits_Decode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limits  BodyLimits
		body    string
		wantErr error
	}{
		{"empty body", BodyLimits{}, "", ErrInvalidJSON},
		{"malformed", BodyLimits{}, `{"tweets":`, ErrInvalidJSON},
		{"trailing document", BodyLimits{}, `{"tweets":[]} {"tweets":[]}`, ErrInvalidJSON},
		{"wrong type", BodyLimits{}, `{"tweets":"one"}`, ErrInvalidJSON},
		{"at byte limit", BodyLimits{MaxBytes: 14}, `{"tweets":[]}` + " ", nil},
		{"over byte limit", BodyLimits{MaxBytes: 8}, `{"tweets":[]}`, ErrBodyTooLarge},
		{"at depth limit", BodyLimits{MaxDepth: 2}, `{"tweets":["a"]}`, nil},
		{"over depth limit", BodyLimits{MaxDepth: 2}, `{"tweets":[["a"]]}`, ErrJSONTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var v threadBody
			err := tt.limits.Decode(strings.NewReader(tt.body), &v)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Decode = %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_DefaultDepth(t *testing.T) {
	t.Parallel()

	deep := strings.Repeat("[", 40) + strings.Repeat("]", 40)
	var v any
	if err := DecodeJSON(strings.NewReader(deep), &v); !errors.Is(err, ErrJSONTooDeep) {
		t.Errorf("DecodeJSON = %v, want ErrJSONTooDeep", err)
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponseType(t *testing.T) {
	tests := []struct {
		input string
		want  ResponseType
	}{
		{"code", ResponseTypeCode},
		{"CODE", ResponseTypeCode},
		{" code ", ResponseTypeCode},
		{"id", ResponseTypeID},
		{"ID", ResponseTypeID},
		{"", ResponseTypeID},
		{"token", ResponseTypeID},
		{"garbage", ResponseTypeID},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseResponseType(tt.input), "input %q", tt.input)
	}
}

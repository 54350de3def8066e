package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		val       float64
		precision uint
		want      float64
	}{
		{1.23456, 2, 1.23},
		{1.005e3, 0, 1005},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{999999.6, 0, 1000000},
		{0.6789, 2, 0.68},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundFloat(tt.val, tt.precision), "round(%v, %d)", tt.val, tt.precision)
	}
}

func TestFormatYen(t *testing.T) {
	tests := []struct {
		val  float64
		want string
	}{
		{0, "0"},
		{2050000.4, "2050000"},
		{2470000.8, "2470001"},
		{8353.8, "8354"},
		{-1234.6, "-1235"},
		// rounds to negative zero, which must not print a sign
		{-0.4, "0"},
		{123456789012, "123456789012"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatYen(tt.val), "format(%v)", tt.val)
	}
}

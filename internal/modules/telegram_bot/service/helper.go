package service

import (
	"fmt"
	"strconv"
	"strings"
)

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

const removePrefix = "RM::"

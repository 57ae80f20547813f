package service

import (
	"github.com/bytedance/sonic"

	"mtf_bot/internal/models"
)

// candle lists are stored with the encoding/json compatible config so float fields
// survive a round trip bit for bit.
var codec = sonic.ConfigStd

func EncodeCandles(cs []models.Candle) ([]byte, error) {
	return codec.Marshal(cs)
}

func DecodeCandles(data []byte) ([]models.Candle, error) {
	var cs []models.Candle
	if err := codec.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

package service

import (
	"encoding/json"
	"math"

	"spacemarket/internal/model"
	"spacemarket/internal/utils"
)

// priceResponse keeps every field raw so that one oddly typed field cannot
// hide a usable price in another.
type priceResponse struct {
	PredictedPrice   json.RawMessage `json:"predicted_price"`
	Predictions      json.RawMessage `json:"predictions"`
	Prediction       json.RawMessage `json:"prediction"`
	LocationFeatures json.RawMessage `json:"location_features"`
}

// NormalizeResponse extracts the predicted price from any of the known
// response shapes:
//
//	{"predicted_price": 55000}
//	{"predictions": {"<model>": {"predicted_price": 55000}}}
//	{"prediction": {"predicted_rent": 55000}}
//
// For the predictions map the first entry in document order is used. Shapes
// are tried in that order and a malformed one is skipped.
func NormalizeResponse(body []byte) (model.Prediction, error) {
	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Prediction{}, &model.PredictionUnavailable{Reason: "malformed response", Err: err}
	}

	price, ok := resp.price()
	if !ok {
		return model.Prediction{}, &model.PredictionUnavailable{Reason: "response carries no usable price"}
	}
	return model.Prediction{Price: price, LocationFeatures: resp.locationFeatures()}, nil
}

func (r priceResponse) price() (float64, bool) {
	if v, ok := rawPrice(r.PredictedPrice); ok {
		return v, true
	}
	if present(r.Predictions) {
		_, first, ok, err := utils.FirstObjectEntry(r.Predictions)
		if err == nil && ok {
			var entry struct {
				PredictedPrice json.RawMessage `json:"predicted_price"`
			}
			if json.Unmarshal(first, &entry) == nil {
				if v, ok := rawPrice(entry.PredictedPrice); ok {
					return v, true
				}
			}
		}
	}
	if present(r.Prediction) {
		var rent struct {
			PredictedRent json.RawMessage `json:"predicted_rent"`
		}
		if json.Unmarshal(r.Prediction, &rent) == nil {
			if v, ok := rawPrice(rent.PredictedRent); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// locationFeatures decodes the neighbourhood summary, dropping it when malformed
func (r priceResponse) locationFeatures() *model.LocationFeatures {
	if !present(r.LocationFeatures) {
		return nil
	}
	var lf model.LocationFeatures
	if err := json.Unmarshal(r.LocationFeatures, &lf); err != nil {
		return nil
	}
	return &lf
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func rawPrice(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, usable(v)
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

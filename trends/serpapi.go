package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"domatrend/database/types"
)

// The SerpAPI payload is only loosely shaped: numeric values arrive as
// numbers or strings, region values sometimes come wrapped in arrays, and
// whole sections may be missing. Everything below defaults defensively
// instead of trusting the external shape.

type serpPayload struct {
	InterestOverTime struct {
		TimelineData []struct {
			Values []struct {
				ExtractedValue json.RawMessage `json:"extracted_value"`
				Value          json.RawMessage `json:"value"`
			} `json:"values"`
		} `json:"timeline_data"`
		Averages []struct {
			Value json.RawMessage `json:"value"`
		} `json:"averages"`
	} `json:"interest_over_time"`
	RelatedQueries struct {
		Rising []relatedQuery `json:"rising"`
		Top    []relatedQuery `json:"top"`
	} `json:"related_queries"`
	InterestByRegion struct {
		MapData    []regionDatum `json:"map_data"`
		GeoMapData []regionDatum `json:"geo_map_data"`
	} `json:"interest_by_region"`
}

type relatedQuery struct {
	Query string `json:"query"`
}

type regionDatum struct {
	GeoName        string          `json:"geo_name"`
	Location       string          `json:"location"`
	Name           string          `json:"name"`
	Value          json.RawMessage `json:"value"`
	ExtractedValue json.RawMessage `json:"extracted_value"`
}

// fetchLive calls the SerpAPI Google Trends time-series endpoint and maps
// the response into well-typed metrics.
func (p *Provider) fetchLive(ctx context.Context, keyword string) (types.SearchMetrics, error) {
	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("q", keyword)
	params.Set("data_type", "TIMESERIES")
	params.Set("api_key", p.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", p.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return types.SearchMetrics{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return types.SearchMetrics{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.SearchMetrics{}, fmt.Errorf("serpapi error %d: %s", resp.StatusCode, string(body))
	}

	var payload serpPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.SearchMetrics{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return p.mapPayload(&payload), nil
}

func (p *Provider) mapPayload(payload *serpPayload) types.SearchMetrics {
	values := make([]float64, 0, len(payload.InterestOverTime.TimelineData))
	for _, point := range payload.InterestOverTime.TimelineData {
		if len(point.Values) == 0 {
			continue
		}
		v, ok := rawToFloat(point.Values[0].ExtractedValue)
		if !ok {
			v, ok = rawToFloat(point.Values[0].Value)
		}
		if ok {
			values = append(values, v)
		}
	}

	start, end := p.timeRange()
	return types.SearchMetrics{
		Volume:         calculateVolume(values, payload),
		Trend:          calculateTrend(values),
		RelatedQueries: extractRelatedQueries(payload),
		GeographicData: extractGeoData(payload),
		TimeRangeStart: start,
		TimeRangeEnd:   end,
	}
}

// calculateTrend is the bounded relative change between the means of the
// first and second halves of the time series, clipped to [-1, 1]. Fewer
// than four points is treated as flat.
func calculateTrend(values []float64) float64 {
	if len(values) < 4 {
		return 0
	}
	half := len(values) / 2
	firstAvg := mean(values[:half])
	secondAvg := mean(values[len(values)-half:])

	if firstAvg == 0 {
		return 0
	}
	delta := (secondAvg - firstAvg) / firstAvg
	return math.Max(-1, math.Min(1, delta))
}

// calculateVolume prefers the provider's reported average, falling back to
// the mean of the time-series values.
func calculateVolume(values []float64, payload *serpPayload) float64 {
	if len(payload.InterestOverTime.Averages) > 0 {
		if avg, ok := rawToFloat(payload.InterestOverTime.Averages[0].Value); ok && avg > 0 {
			return math.Round(avg)
		}
	}
	if len(values) == 0 {
		return 0
	}
	return math.Round(mean(values))
}

// extractRelatedQueries prefers rising queries over top, capped at five
func extractRelatedQueries(payload *serpPayload) []string {
	primary := payload.RelatedQueries.Rising
	if len(primary) == 0 {
		primary = payload.RelatedQueries.Top
	}

	queries := make([]string, 0, maxRelatedQueries)
	for _, item := range primary {
		if item.Query == "" {
			continue
		}
		queries = append(queries, item.Query)
		if len(queries) == maxRelatedQueries {
			break
		}
	}
	return queries
}

const maxRelatedQueries = 5

func extractGeoData(payload *serpPayload) map[string]float64 {
	regionData := payload.InterestByRegion.MapData
	if len(regionData) == 0 {
		regionData = payload.InterestByRegion.GeoMapData
	}

	result := make(map[string]float64)
	for _, item := range regionData {
		region := item.GeoName
		if region == "" {
			region = item.Location
		}
		if region == "" {
			region = item.Name
		}
		if region == "" {
			continue
		}

		v, ok := rawToFloat(item.Value)
		if !ok {
			v, ok = rawToFloat(item.ExtractedValue)
		}
		if ok {
			result[region] = v
		}
	}
	return result
}

// rawToFloat coerces a loosely typed JSON value (number, quoted number, or
// a one-element array of either) into a float64.
func rawToFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		parsed, perr := strconv.ParseFloat(str, 64)
		if perr != nil {
			return 0, false
		}
		return parsed, true
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return rawToFloat(arr[0])
	}

	return 0, false
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package config

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/discleague/internal/domain/model"
)

// LoadSeason reads the season's events from a YAML file of the form
//
//	events:
//	  round-1:
//	    url: https://udisc.com/events/.../leaderboard
//	    date: 06/07/2025
//
// A list under events is accepted as well, keyed by position. Slash dates
// are resolved with slashLayout. Events come back sorted by date, then key.
// Any missing or malformed field fails the whole season with ErrInvalidSeason.
func LoadSeason(_ context.Context, path, slashLayout string) ([]model.Event, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}

	entries, err := seasonEntries(k.Get("events"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSeason, path, err)
	}

	events := make([]model.Event, 0, len(entries))
	for _, key := range sortedKeys(entries) {
		e, err := parseEvent(key, entries[key], slashLayout)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSeason, path, err)
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].Date.Compare(events[j].Date); c != 0 {
			return c < 0
		}
		return events[i].Key < events[j].Key
	})
	return events, nil
}

func seasonEntries(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		if len(v) == 0 {
			break
		}
		return v, nil
	case []any:
		if len(v) == 0 {
			break
		}
		out := make(map[string]any, len(v))
		for i, item := range v {
			out[fmt.Sprintf("%03d", i+1)] = item
		}
		return out, nil
	case nil:
	default:
		return nil, fmt.Errorf("events must be a map or a list, got %T", raw)
	}
	return nil, fmt.Errorf("no events configured")
}

func parseEvent(key string, raw any, slashLayout string) (model.Event, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: expected url and date, got %T", key, raw)
	}

	url, _ := fields["url"].(string)
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Event{}, fmt.Errorf("event %q: missing url", key)
	}

	var date model.Date
	switch v := fields["date"].(type) {
	case time.Time:
		date = model.NewDate(v)
	case string:
		d, err := model.ParseDate(v, slashLayout)
		if err != nil {
			return model.Event{}, fmt.Errorf("event %q: %v", key, err)
		}
		date = d
	case nil:
		return model.Event{}, fmt.Errorf("event %q: missing date", key)
	default:
		return model.Event{}, fmt.Errorf("event %q: date must be text, got %T", key, v)
	}

	return model.Event{Key: key, URL: url, Date: date}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

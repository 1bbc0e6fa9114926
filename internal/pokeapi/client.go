package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const MaxID = 1025

var ErrUpstream = errors.New("pokemon data provider unavailable")

type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
}

type FlavorText struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Pokemon is the merged pokemon + species payload the quiz needs.
type Pokemon struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Height            int          `json:"height"`
	Weight            int          `json:"weight"`
	Stats             []Stat       `json:"stats"`
	Types             []string     `json:"types"`
	FlavorTextEntries []FlavorText `json:"flavor_text_entries"`
}

type Provider interface {
	Fetch(ctx context.Context, id int) (*Pokemon, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type pokemonResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Height int    `json:"height"`
	Weight int    `json:"weight"`
	Stats  []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
}

type speciesResponse struct {
	FlavorTextEntries []struct {
		FlavorText string `json:"flavor_text"`
		Language   struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"flavor_text_entries"`
}

func (c *Client) Fetch(ctx context.Context, id int) (*Pokemon, error) {
	var p pokemonResponse
	if err := c.get(ctx, "pokemon/"+strconv.Itoa(id), &p); err != nil {
		return nil, err
	}
	var s speciesResponse
	if err := c.get(ctx, "pokemon-species/"+strconv.Itoa(id), &s); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: pokemon %d has no name", ErrUpstream, id)
	}

	out := &Pokemon{
		ID:     p.ID,
		Name:   p.Name,
		Height: p.Height,
		Weight: p.Weight,
	}
	for _, st := range p.Stats {
		out.Stats = append(out.Stats, Stat{Name: st.Stat.Name, BaseStat: st.BaseStat})
	}
	for _, t := range p.Types {
		out.Types = append(out.Types, t.Type.Name)
	}
	for _, e := range s.FlavorTextEntries {
		out.FlavorTextEntries = append(out.FlavorTextEntries, FlavorText{Text: e.FlavorText, Language: e.Language.Name})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: do request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s returned status %d", ErrUpstream, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	return nil
}

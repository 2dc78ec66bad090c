package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page carries the paging envelope shared by ONS list responses.
type Page struct {
	Count      int `json:"count"`
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Page
	Items []SearchItem `json:"items"`
}

type SearchItem struct {
	URI         string            `json:"uri"`
	Type        string            `json:"type,omitempty"`
	Description SearchDescription `json:"description"`
}

type SearchDescription struct {
	DatasetID string `json:"dataset_id,omitempty"`
	Title     string `json:"title"`
}

// DatasetList is the body of GET /datasets.
type DatasetList struct {
	Page
	Items []Dataset `json:"items"`
}

type Dataset struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// EditionList is the body of GET /datasets/{id}/editions.
type EditionList struct {
	Page
	Items []Edition `json:"items"`
}

type Edition struct {
	Edition     string `json:"edition"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// VersionList is the body of GET .../editions/{edition}/versions.
type VersionList struct {
	Page
	Items []Version `json:"items"`
}

// Version is both a list entry and the body of GET .../versions/{v}.
// ONS serves the version number as a JSON number; mirrors and older
// endpoints use a string, so both are accepted.
type Version struct {
	Version     FlexString  `json:"version"`
	Edition     string      `json:"edition,omitempty"`
	ReleaseDate string      `json:"release_date,omitempty"`
	Dimensions  []Dimension `json:"dimensions,omitempty"`
}

// Dimension is one axis of a dataset version. ONS names the identifier
// "name"; some payloads use "id".
type Dimension struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`
}

// Key returns the identifier used in option and observation paths.
func (d Dimension) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Name
}

// OptionList is the body of GET .../dimensions/{dim}/options.
type OptionList struct {
	Page
	Items []Option `json:"items"`
}

type Option struct {
	Option    string `json:"option,omitempty"`
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Dimension string `json:"dimension,omitempty"`
}

// Code returns the value sent as an observation filter.
func (o Option) Code() string {
	if o.Option != "" {
		return o.Option
	}
	return o.ID
}

// ObservationList is the body of GET .../observations.
type ObservationList struct {
	Observations      []Observation `json:"observations"`
	TotalObservations int           `json:"total_observations,omitempty"`
}

type Observation struct {
	Observation FlexString                      `json:"observation"`
	Value       FlexString                      `json:"value"`
	Dimensions  map[string]ObservationDimension `json:"dimensions,omitempty"`
}

type ObservationDimension struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	HRef  string `json:"href,omitempty"`
}

// FlexString holds a JSON string or number as text. Valid is false for
// null or an absent field.
type FlexString struct {
	Text  string
	Valid bool
}

// Flex wraps s as a valid FlexString.
func Flex(s string) FlexString {
	return FlexString{Text: s, Valid: true}
}

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = FlexString{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = Flex(n.String())
	return nil
}

func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Text)
}

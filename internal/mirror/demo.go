package mirror

import "onspop/pkg/models"

// DemoGeography is the GSS code the demo fixture answers for.
const DemoGeography = "E07000046"

// DemoFixture is a small catalog holding one population dataset with an
// "All ages" aggregate, enough for a full offline run.
func DemoFixture() *Fixture {
	return &Fixture{
		Search: []models.SearchItem{
			{
				URI: "/datasets/pop-est",
				Description: models.SearchDescription{
					DatasetID: "pop-est",
					Title:     "Population estimates for local authorities",
				},
			},
		},
		Datasets: []DatasetFixture{
			{
				ID:    "pop-est",
				Title: "Population estimates for local authorities",
				Editions: []EditionFixture{
					{
						Edition:     "time-series",
						LastUpdated: "2023-01-01T00:00:00Z",
						Versions: []VersionFixture{
							{Version: models.Flex("1")},
							{
								Version: models.Flex("2"),
								Dimensions: []DimensionFixture{
									{ID: "geography", Label: "Geography", Options: []models.Option{
										{ID: DemoGeography, Label: "Torridge"},
									}},
									{ID: "sex", Label: "Sex", Options: []models.Option{
										{ID: "1", Label: "Male"},
										{ID: "2", Label: "Female"},
										{ID: "7", Label: "All persons"},
									}},
									{ID: "age", Label: "Age", Options: []models.Option{
										{ID: "0", Label: "0"},
										{ID: "1", Label: "1"},
										{ID: "all", Label: "All ages"},
									}},
									{ID: "time", Label: "Time", Options: []models.Option{
										{ID: "2020", Label: "2020"},
										{ID: "2022", Label: "2022"},
										{ID: "2021", Label: "2021"},
									}},
								},
								Observations: []ObservationFixture{
									{
										Filters:     map[string]string{"geography": DemoGeography, "sex": "7", "age": "all", "time": "2022"},
										Observation: models.Flex("45000"),
										TimeLabel:   "2022",
									},
									{
										Filters:     map[string]string{"geography": DemoGeography, "sex": "7", "age": "0", "time": "2022"},
										Observation: models.Flex("10"),
									},
									{
										Filters:     map[string]string{"geography": DemoGeography, "sex": "7", "age": "1", "time": "2022"},
										Observation: models.Flex("12"),
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// Version returns the fixture version at dataset/edition/version, or nil.
func (f *Fixture) Version(datasetID, edition, version string) *VersionFixture {
	ds := f.dataset(datasetID)
	if ds == nil {
		return nil
	}
	ed := ds.edition(edition)
	if ed == nil {
		return nil
	}
	return ed.version(version)
}

// Dimension returns the named dimension of v, or nil.
func (v *VersionFixture) Dimension(key string) *DimensionFixture {
	return v.dimension(key)
}

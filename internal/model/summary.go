package model

import (
	"encoding/json"
	"sort"
)

// CountryStat aggregates the records for one destination.
type CountryStat struct {
	Country string `json:"country"`
	Events  int    `json:"events"`
	People  int    `json:"people"`
}

// Summary holds aggregate statistics over a list of records.
type Summary struct {
	// TotalEvents is the number of records.
	TotalEvents int `json:"total_removals"`
	// TotalPeople is the sum of the known counts.
	TotalPeople int `json:"total_people"`
	// Destinations is the number of distinct destination countries.
	Destinations int `json:"destinations"`
	// Ongoing counts curated records flagged as ongoing programs.
	Ongoing int `json:"ongoing_programs"`
	// ByCountry is sorted by country name.
	ByCountry []CountryStat `json:"by_destination_country"`
}

// Summarize computes a Summary. Records with an unknown count add to the
// event totals but not to the people totals.
func Summarize(records []Record) Summary {
	byCountry := make(map[string]*CountryStat)
	var s Summary

	for _, r := range records {
		s.TotalEvents++
		stat, ok := byCountry[r.DestinationCountry]
		if !ok {
			stat = &CountryStat{Country: r.DestinationCountry}
			byCountry[r.DestinationCountry] = stat
		}
		stat.Events++
		if r.NumberRemoved != nil {
			s.TotalPeople += *r.NumberRemoved
			stat.People += *r.NumberRemoved
		}
		if r.Ongoing() {
			s.Ongoing++
		}
	}

	s.Destinations = len(byCountry)
	s.ByCountry = make([]CountryStat, 0, len(byCountry))
	for _, stat := range byCountry {
		s.ByCountry = append(s.ByCountry, *stat)
	}
	sort.Slice(s.ByCountry, func(i, j int) bool {
		return s.ByCountry[i].Country < s.ByCountry[j].Country
	})
	return s
}

// Ongoing reports whether the record carries a curated "ongoing": true flag.
func (r Record) Ongoing() bool {
	raw, ok := r.Extra["ongoing"]
	if !ok {
		return false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return v
}

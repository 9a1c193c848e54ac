package models

import (
	"fmt"
	"slices"
	"time"
)

// ReferenceData holds the option lists offered by the booking form.
type ReferenceData struct {
	Rooms        []string `json:"rooms"`
	SurgeryTypes []string `json:"surgery_types"`
	Hours        []string `json:"hours"`
}

var (
	DefaultRooms = []string{"Room 1", "Room 2"}

	DefaultSurgeryTypes = []string{
		"Phaco", "PPV", "Pterygium", "Blepharoplasty",
		"Glaucoma OP", "KPL", "Trauma OP", "Enucleation",
		"Injection", "Squint OP", "Other",
	}
)

// SlotHours lists the bookable start times, every 30 minutes from 10:00 to 22:00.
func SlotHours() []string {
	var hours []string
	start := time.Date(0, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(0, 1, 1, 22, 0, 0, 0, time.UTC)
	for t := start; !t.After(end); t = t.Add(30 * time.Minute) {
		hours = append(hours, t.Format(HourLayout))
	}
	return hours
}

func NewReferenceData(rooms, surgeryTypes []string) (*ReferenceData, error) {
	if len(rooms) == 0 {
		rooms = DefaultRooms
	}
	if len(surgeryTypes) == 0 {
		surgeryTypes = DefaultSurgeryTypes
	}
	for _, list := range [][]string{rooms, surgeryTypes} {
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			if v == "" {
				return nil, fmt.Errorf("empty catalog entry")
			}
			if seen[v] {
				return nil, fmt.Errorf("duplicate catalog entry %q", v)
			}
			seen[v] = true
		}
	}
	return &ReferenceData{
		Rooms:        slices.Clone(rooms),
		SurgeryTypes: slices.Clone(surgeryTypes),
		Hours:        SlotHours(),
	}, nil
}

func DefaultReferenceData() *ReferenceData {
	ref, _ := NewReferenceData(nil, nil)
	return ref
}

func (r *ReferenceData) HasRoom(room string) bool { return slices.Contains(r.Rooms, room) }

func (r *ReferenceData) HasSurgery(s string) bool { return slices.Contains(r.SurgeryTypes, s) }

func (r *ReferenceData) HasHour(h string) bool { return slices.Contains(r.Hours, h) }

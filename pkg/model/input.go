package model

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/mapstructure"
)

// RawInstance is the serializable instance-description format. The same
// instance file can be replayed across sessions and across strategies so
// comparisons stay fair.
type RawInstance struct {
	Students     uint64
	Exams        []Exam
	Timeslots    []Timeslot
	Rooms        []Room
	Invigilators []Invigilator
}

type Exam struct {
	Id       uint64
	Name     string
	Duration uint64 // minutes
	Students []uint64
	// Capability names a room feature the exam asks for (e.g. "lab").
	// Empty means any room will do.
	Capability string
}

type Timeslot struct {
	Id    uint64
	Day   uint64
	Index uint64 // position in the total order of slots
	Start uint64 // minutes from midnight
	End   uint64
}

type Room struct {
	Id           uint64
	Name         string
	Capacity     uint64
	Capabilities []string
}

type Invigilator struct {
	Id           uint64
	Name         string
	Availability []bool // indexed by timeslot position
	Privilege    uint64
}

func InstanceFromJson(file string) (*Model, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return nil, err
	}

	var raw RawInstance
	if err := mapstructure.Decode(inputJson, &raw); err != nil {
		return nil, err
	}
	return NewModel(raw)
}

// InstanceToJson writes the model's instance description back to disk.
func InstanceToJson(m *Model, file string) error {
	bytes, err := json.MarshalIndent(m.Raw(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, bytes, 0644)
}

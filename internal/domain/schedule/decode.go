package schedule

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode reads a schedule definition written as YAML or JSON.
func Decode(data []byte) (Schedule, error) {
	var s Schedule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Schedule{}, fmt.Errorf("%w: decoding definition: %v", ErrInvalidSchedule, err)
	}
	return s, nil
}

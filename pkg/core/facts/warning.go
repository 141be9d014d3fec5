package facts

import "fmt"

// Warning is an advisory diagnostic keyed by the field or metric it concerns.
// Warnings never change the output; they explain it.
type Warning struct {
	Stage   string `json:"stage"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Stage, w.Name, w.Message)
}

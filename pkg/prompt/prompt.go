// Package prompt assembles bot system instructions from layered sources:
// persona, role, and behavioral constraints, in that fixed order. Raw
// pre-composed strings take precedence over structured templates.
package prompt

import "strings"

// Persona is the structured identity template used when no raw persona
// string is supplied.
type Persona struct {
	Name        string
	Personality string
	Background  string
}

// Role is a behavioral archetype layered on top of persona.
type Role struct {
	MainRole  string
	FinalGoal string
}

// Input carries every optional layer of one system instruction.
type Input struct {
	RawPersona string
	Persona    *Persona

	Role *Role

	RawConstraints string
	Constraints    []string
}

// sectionProvider yields one rendered section, or reports that it
// contributes nothing. Providers for one layer are evaluated in order and
// the first non-empty result wins.
type sectionProvider func() (string, bool)

// Compose builds the system instruction. Sections are joined with a blank
// line; an entirely empty input yields an empty string.
func Compose(in Input) string {
	layers := [][]sectionProvider{
		{rawSection(in.RawPersona), personaTemplate(in.Persona)},
		{roleTemplate(in.Role)},
		{rawSection(in.RawConstraints), constraintsTemplate(in.Constraints)},
	}

	sections := make([]string, 0, len(layers))
	for _, providers := range layers {
		for _, provide := range providers {
			section, ok := provide()
			if !ok {
				continue
			}
			sections = append(sections, section)
			break
		}
	}

	return strings.Join(sections, "\n\n")
}

func rawSection(raw string) sectionProvider {
	return func() (string, bool) {
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	}
}

func personaTemplate(persona *Persona) sectionProvider {
	return func() (string, bool) {
		if persona == nil {
			return "", false
		}

		lines := fieldLines(
			field{"Name", persona.Name},
			field{"Personality", persona.Personality},
			field{"Background", persona.Background},
		)

		return renderBlock("persona", lines)
	}
}

func roleTemplate(role *Role) sectionProvider {
	return func() (string, bool) {
		if role == nil {
			return "", false
		}

		lines := fieldLines(
			field{"Main role", role.MainRole},
			field{"Final goal", role.FinalGoal},
		)

		return renderBlock("role", lines)
	}
}

func constraintsTemplate(constraints []string) sectionProvider {
	return func() (string, bool) {
		lines := make([]string, 0, len(constraints))
		for _, constraint := range constraints {
			if constraint = strings.TrimSpace(constraint); constraint != "" {
				lines = append(lines, "- "+constraint)
			}
		}

		return renderBlock("constraints", lines)
	}
}

type field struct {
	label string
	value string
}

func fieldLines(fields ...field) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if value := strings.TrimSpace(f.value); value != "" {
			lines = append(lines, f.label+": "+value)
		}
	}

	return lines
}

// renderBlock wraps lines in tagged open/close markers. A section with no
// content contributes nothing, never an empty block.
func renderBlock(tag string, lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}

	return "<" + tag + ">\n" + strings.Join(lines, "\n") + "\n</" + tag + ">", true
}

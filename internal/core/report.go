package core

import "math"

// ClassReport is the per-class, per-month attendance summary handed to
// renderers.
type ClassReport struct {
	Label    string          `json:"turma"`
	Code     string          `json:"codigo,omitempty"`
	Schedule string          `json:"horario"`
	Teacher  string          `json:"professor"`
	Level    string          `json:"nivel"`
	Students []StudentReport `json:"alunos"`
}

type StudentReport struct {
	ID        string            `json:"id"`
	Name      string            `json:"nome"`
	Present   int               `json:"presencas"`
	Absent    int               `json:"faltas"`
	Excused   int               `json:"justificativas"`
	Frequency float64           `json:"frequencia"`
	History   map[string]string `json:"historico"`
	Notes     map[string]string `json:"anotacoes,omitempty"`
}

// StudentStatistics is the full-history retention summary of one student.
type StudentStatistics struct {
	ID            string       `json:"id"`
	Name          string       `json:"nome"`
	FirstPresence *string      `json:"firstPresence"`
	LastPresence  *string      `json:"lastPresence"`
	ExclusionDate *string      `json:"exclusionDate"`
	RetentionDays int          `json:"retentionDays"`
	CurrentLevel  *string      `json:"currentNivel"`
	Levels        []LevelStats `json:"levels"`
}

// LevelStats is the attendance segment of a student at one level.
type LevelStats struct {
	Level     string  `json:"nivel"`
	FirstDate *string `json:"firstDate"`
	LastDate  *string `json:"lastDate"`
	Days      int     `json:"days"`
	Present   int     `json:"presencas"`
	Absent    int     `json:"faltas"`
	Excused   int     `json:"justificativas"`
	Frequency float64 `json:"frequencia"`
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

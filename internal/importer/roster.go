package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/normalize"
)

var (
	ErrNoWorksheet    = errors.New("no worksheet found")
	ErrEmptyWorksheet = errors.New("worksheet is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNotWorkbook    = errors.New("not an xlsx workbook")
)

// RosterEntry is one student line of a roster sheet together with the
// class it is enrolled in.
type RosterEntry struct {
	Class   core.ClassRecord
	Student core.StudentRecord
}

type rosterField int

const (
	fieldClass rosterField = iota
	fieldCode
	fieldSchedule
	fieldTeacher
	fieldLevel
	fieldWeekdays
	fieldName
	fieldWhatsApp
	fieldBirth
	fieldCategory
	fieldGender
	fieldCertificate
)

// Header aliases, folded.
var rosterHeaders = map[string]rosterField{
	"turma":              fieldClass,
	"classe":             fieldClass,
	"codigo":             fieldCode,
	"cod":                fieldCode,
	"horario":            fieldSchedule,
	"hora":               fieldSchedule,
	"professor":          fieldTeacher,
	"prof":               fieldTeacher,
	"instrutor":          fieldTeacher,
	"nivel":              fieldLevel,
	"dias":               fieldWeekdays,
	"dias da semana":     fieldWeekdays,
	"nome":               fieldName,
	"aluno":              fieldName,
	"nome completo":      fieldName,
	"whatsapp":           fieldWhatsApp,
	"celular":            fieldWhatsApp,
	"telefone":           fieldWhatsApp,
	"nascimento":         fieldBirth,
	"data de nascimento": fieldBirth,
	"aniversario":        fieldBirth,
	"categoria":          fieldCategory,
	"genero":             fieldGender,
	"sexo":               fieldGender,
	"atestado":           fieldCertificate,
}

// ReadRoster parses the first worksheet of an XLSX roster. The first row
// is the header; columns are matched by name so their order is free.
func ReadRoster(r io.Reader) ([]RosterEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open roster: %w: %w", ErrNotWorkbook, err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoWorksheet
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorksheet
	}

	cols := make(map[rosterField]int)
	for i, h := range rows[0] {
		if f, ok := rosterHeaders[normalize.Fold(h)]; ok {
			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}
	}
	_, hasClass := cols[fieldClass]
	_, hasCode := cols[fieldCode]
	if _, ok := cols[fieldName]; !ok || !(hasClass || hasCode) {
		return nil, fmt.Errorf("%w: need aluno and turma or codigo", ErrMissingColumns)
	}

	get := func(row []string, f rosterField) string {
		i, ok := cols[f]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []RosterEntry
	for _, row := range rows[1:] {
		name := normalize.ProperCase(get(row, fieldName))
		label, code := get(row, fieldClass), get(row, fieldCode)
		if name == "" || (label == "" && code == "") {
			continue
		}
		if code == "" {
			code = label
		}
		cert := normalize.Fold(get(row, fieldCertificate))
		out = append(out, RosterEntry{
			Class: core.ClassRecord{
				Code:     code,
				Label:    label,
				Schedule: normalize.Schedule(get(row, fieldSchedule)),
				Teacher:  get(row, fieldTeacher),
				Level:    get(row, fieldLevel),
				Weekdays: get(row, fieldWeekdays),
			},
			Student: core.StudentRecord{
				Name:           name,
				WhatsApp:       normalize.Digits(get(row, fieldWhatsApp)),
				BirthDate:      cellDate(get(row, fieldBirth)),
				Category:       get(row, fieldCategory),
				Gender:         get(row, fieldGender),
				HasCertificate: cert == "sim" || cert == "s" || cert == "x",
			},
		})
	}
	return out, nil
}

// cellDate accepts Excel serials, DD/MM/YYYY and ISO dates. Anything else
// is kept as typed.
func cellDate(v string) string {
	if v == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(core.DateLayout)
		}
	}
	if t, err := core.ParseExclusionDate(v); err == nil {
		return t.Format(core.DateLayout)
	}
	return v
}

package types

// FileData is a parsed spreadsheet: the header row and the data rows below it.
// Cells are aligned by column index; a row may be shorter than Headers.
type FileData struct {
	Headers []string
	Rows    [][]string
}

// Lead is one normalized record produced from a spreadsheet row.
type Lead struct {
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Phone1 string `json:"phone1" yaml:"phone1"`
	Phone2 string `json:"phone2" yaml:"phone2"`
	Status string `json:"status" yaml:"status"`
	Team   string `json:"team" yaml:"team"`
}

type ExportResult struct {
	InputFile    string
	OutputFile   string
	LeadsWritten int
}

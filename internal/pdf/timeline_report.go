package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateTimelineReport(data TimelineReportData) (string, error)
}

// ReportGenerator renders submission-history reports into RootDir.
type ReportGenerator struct {
	RootDir  string // файловый корень, например "./files"
	FontPath string // путь до TTF; пусто — используем встроенный Helvetica
	fontName string
}

// TimelineSubmission is one rendered submission row.
type TimelineSubmission struct {
	Feedback       string
	Link           string
	CompletedBy    string
	CompletedDate  time.Time
	ReworkComment  string
	ReworkDeadline *time.Time
}

type TimelineReportData struct {
	TaskID      int64
	Title       string
	Status      string
	Priority    string
	DueDate     time.Time
	Current     *TimelineSubmission
	Previous    []TimelineSubmission
	OpenComment string // open rework request, if any
	GeneratedAt time.Time
	Filename    string // имя файла (без путей); если пусто — сгенерируем
}

func NewReportGenerator(rootDir, fontPath string) *ReportGenerator {
	return &ReportGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

// GenerateTimelineReport writes the report and returns its path relative to
// RootDir ("/name.pdf").
func (g *ReportGenerator) GenerateTimelineReport(data TimelineReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("task_%d_timeline.pdf", data.TaskID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Task #%d — submission history", data.TaskID), true)
	doc.SetAuthor("TaskDesk", false)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)

	g.setupFont(doc)
	doc.AddPage()

	// ===== Header
	doc.SetFont(g.fontName, "B", 18)
	doc.CellFormat(0, 10, "SUBMISSION HISTORY", "", 1, "C", false, 0, "")

	doc.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("Task #%d  —  generated %s",
		data.TaskID,
		data.GeneratedAt.Format("2006-01-02 15:04"),
	)
	doc.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(doc)
	doc.Ln(3)

	// ===== Task
	g.sectionTitle(doc, "Task")
	g.kvLine(doc, "Title", data.Title)
	g.kvLine(doc, "Status", data.Status)
	g.kvLine(doc, "Priority", data.Priority)
	g.kvLine(doc, "Due date", data.DueDate.Format("2006-01-02"))
	doc.Ln(2)
	g.hr(doc)

	// ===== Current submission
	if data.Current != nil {
		g.sectionTitle(doc, "Current submission")
		g.submission(doc, *data.Current)
		g.hr(doc)
	}

	// ===== Open rework request
	if data.OpenComment != "" {
		g.sectionTitle(doc, "Awaiting resubmission")
		doc.SetFont(g.fontName, "", 11)
		doc.MultiCell(0, 6, data.OpenComment, "", "L", false)
		doc.Ln(2)
		g.hr(doc)
	}

	// ===== Previous submissions
	if len(data.Previous) > 0 {
		g.sectionTitle(doc, "Previous submissions")
		for i, s := range data.Previous {
			doc.SetFont(g.fontName, "B", 11)
			doc.CellFormat(0, 6, fmt.Sprintf("Submission %d", len(data.Previous)-i), "", 1, "L", false, 0, "")
			g.submission(doc, s)
		}
		g.hr(doc)
	}

	// ===== Page numbers
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(g.fontName, "", 10)
		doc.CellFormat(0, 10,
			fmt.Sprintf("Page %d/{nb}", doc.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := doc.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *ReportGenerator) submission(doc *gofpdf.Fpdf, s TimelineSubmission) {
	if s.ReworkComment != "" {
		g.kvLine(doc, "Rework request", s.ReworkComment)
		if s.ReworkDeadline != nil {
			g.kvLine(doc, "Deadline", s.ReworkDeadline.Format("2006-01-02"))
		}
	}
	g.kvLine(doc, "Submitted by", s.CompletedBy)
	g.kvLine(doc, "Submitted at", s.CompletedDate.Format("2006-01-02 15:04"))
	if s.Link != "" {
		g.kvLine(doc, "Link", s.Link)
	}
	doc.SetFont(g.fontName, "", 11)
	doc.MultiCell(0, 6, s.Feedback, "", "L", false)
	doc.Ln(2)
}

// ===== helpers =====

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *ReportGenerator) setupFont(doc *gofpdf.Fpdf) {
	if g.FontPath == "" {
		g.fontName = "Helvetica"
		return
	}
	doc.AddUTF8Font(g.fontName, "", g.FontPath)
	doc.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func (g *ReportGenerator) sectionTitle(doc *gofpdf.Fpdf, s string) {
	doc.SetFont(g.fontName, "B", 12)
	doc.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	doc.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(doc *gofpdf.Fpdf, key, val string) {
	doc.SetFont(g.fontName, "B", 11)
	doc.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	doc.SetFont(g.fontName, "", 11)
	doc.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(doc *gofpdf.Fpdf) {
	y := doc.GetY() + 1.5
	doc.SetLineWidth(0.2)
	doc.Line(20, y, 190, y)
	doc.SetY(y + 2)
}

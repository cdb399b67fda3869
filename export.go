package main

import (
	"log"
	"net/http"

	"github.com/jung-kurt/gofpdf"
)

// pdfScale maps canvas pixels to millimeters on an A4 page.
const pdfScale = 3.0

// handleExportPDF renders a room's shared document as a PDF polyline
// drawing.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("roomCode")
	if code == "" {
		writeError(w, http.StatusBadRequest, "roomCode is required")
		return
	}

	strokes, ok := s.hub.RoomSnapshot(code)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	for _, st := range strokes {
		c := parseColor(st.Color)
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pdf.SetLineWidth(st.Width / pdfScale)
		for i := 1; i < len(st.Points); i++ {
			pdf.Line(
				st.Points[i-1].X/pdfScale, st.Points[i-1].Y/pdfScale,
				st.Points[i].X/pdfScale, st.Points[i].Y/pdfScale,
			)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="whiteboard.pdf"`)
	if err := pdf.Output(w); err != nil {
		log.Printf("pdf export failed for room %s: %v", code, err)
	}
}

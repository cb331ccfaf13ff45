package models

import "time"

// AnalysisRun is one analyzed game as kept in the history store.
type AnalysisRun struct {
	ID          string             `json:"id"`
	Event       string             `json:"event"`
	Site        string             `json:"site"`
	Date        string             `json:"date"`
	White       string             `json:"white"`
	Black       string             `json:"black"`
	Result      string             `json:"result"`
	Color       string             `json:"color"`
	Model       string             `json:"model"`
	Depth       int                `json:"depth"`
	Plies       int                `json:"plies"`
	Blunders    int                `json:"blunders"`
	Mistakes    int                `json:"mistakes"`
	PasteURL    string             `json:"paste_url"`
	CreatedAt   time.Time          `json:"created_at"`
	Annotations []StoredAnnotation `json:"annotations,omitempty"`
}

type StoredAnnotation struct {
	ID             int64   `json:"id"`
	RunID          string  `json:"run_id"`
	Ply            int     `json:"ply"`
	SAN            string  `json:"san"`
	Kind           string  `json:"kind"`
	WinProbability float64 `json:"win_probability"`
	Delta          float64 `json:"delta"`
	FEN            string  `json:"fen"`
}

// AnnotationWithRun joins an annotation with the game it was found in.
type AnnotationWithRun struct {
	StoredAnnotation
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryFilter struct {
	Color  string
	Kind   string
	Player string
	Limit  int
	Offset int
}

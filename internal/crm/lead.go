// Package crm manages the saved leads of each user and their kanban stage.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Errors returned by the service and the stores.
var (
	ErrNotFound  = errors.New("lead not found")
	ErrDuplicate = errors.New("lead already exists")
	ErrInvalid   = errors.New("invalid lead")
)

// Stage is a kanban column.
type Stage string

// Kanban stages in board order.
const (
	StageNew         Stage = "novo"
	StageContacted   Stage = "contato"
	StageQualified   Stage = "qualificado"
	StageProposal    Stage = "proposta"
	StageNegotiation Stage = "negociacao"
	StageWon         Stage = "fechado"
	StageLost        Stage = "perdido"
)

var stages = []Stage{StageNew, StageContacted, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}

var stageLabels = map[Stage]string{
	StageNew:         "Novo",
	StageContacted:   "Contato",
	StageQualified:   "Qualificado",
	StageProposal:    "Proposta",
	StageNegotiation: "Negociação",
	StageWon:         "Fechado",
	StageLost:        "Perdido",
}

// Stages returns the stages in board order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Label is the board title of s.
func (s Stage) Label() string { return stageLabels[s] }

// Lead is a contact saved from a search or scraper result.
type Lead struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id"`
	Nome           string          `json:"nome"`
	Empresa        string          `json:"empresa"`
	Telefone       string          `json:"telefone"`
	Email          string          `json:"email"`
	Endereco       string          `json:"endereco"`
	CNPJ           string          `json:"cnpj"`
	Website        string          `json:"website"`
	Categoria      string          `json:"categoria"`
	Rating         float64         `json:"rating"`
	ReviewsCount   int             `json:"reviews_count"`
	Fonte          string          `json:"fonte"`
	DadosOriginais json.RawMessage `json:"dados_originais,omitempty"`
	Notas          string          `json:"notas"`
	Stage          Stage           `json:"stage"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Key is the duplicate-detection key of l.
func (l Lead) Key() string {
	return DedupKey(l.Nome, l.Empresa, l.Telefone, l.Email)
}

// DedupKey joins the identifying fields the same way the web client does,
// so keys returned by CheckDuplicates can be matched client side.
func DedupKey(nome, empresa, telefone, email string) string {
	return nome + "_" + empresa + "_" + telefone + "_" + email
}

// Store persists leads scoped by user.
type Store interface {
	Create(ctx context.Context, l Lead) error
	List(ctx context.Context, userID int64, stage Stage) ([]Lead, error)
	Get(ctx context.Context, userID int64, id string) (Lead, error)
	UpdateStage(ctx context.Context, userID int64, id string, stage Stage, at time.Time) (Lead, error)
	UpdateNotes(ctx context.Context, userID int64, id, notes string, at time.Time) (Lead, error)
	Delete(ctx context.Context, userID int64, id string) error
	ExistingKeys(ctx context.Context, userID int64, keys []string) ([]string, error)
	CountByStage(ctx context.Context, userID int64) (map[Stage]int64, error)
}

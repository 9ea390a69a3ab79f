package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/empresasbrasil/internal/reference"
)

// ErrInvalid marks a request that fails filter validation.
var ErrInvalid = errors.New("invalid filters")

// Company limit bounds for non-CNPJ searches.
const (
	MinCompanyLimit     = 1000
	MaxCompanyLimit     = 50000
	DefaultCompanyLimit = 1000
)

// SearchMode selects the result ordering.
type SearchMode string

// Supported orderings.
const (
	ModeNormal         SearchMode = "normal"
	ModeRandom         SearchMode = "random"
	ModeAlphabetic     SearchMode = "alphabetic"
	ModeAlphabeticDesc SearchMode = "alphabetic_desc"
	ModeNewest         SearchMode = "newest"
	ModeLargest        SearchMode = "largest"
	ModeReverse        SearchMode = "reverse"
)

// Valid reports whether m is a known ordering.
func (m SearchMode) Valid() bool {
	switch m {
	case ModeNormal, ModeRandom, ModeAlphabetic, ModeAlphabeticDesc, ModeNewest, ModeLargest, ModeReverse:
		return true
	}
	return false
}

// Deterministic reports whether identical queries return identical order.
func (m SearchMode) Deterministic() bool { return m != ModeRandom }

// FlexString decodes JSON strings and numbers alike.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// FlexInt decodes JSON numbers and numeric strings alike.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return fmt.Errorf("decode integer %q: %w", str, err)
	}
	*f = FlexInt(n)
	return nil
}

// Filters is the request body of the search, count and export endpoints.
type Filters struct {
	SegmentoNegocio   FlexString `json:"segmentoNegocio"`
	UF                string     `json:"uf"`
	SituacaoCadastral string     `json:"situacaoCadastral"`
	MotivoSituacao    string     `json:"motivoSituacao"`
	QualificacaoSocio string     `json:"qualificacaoSocio"`
	NaturezaJuridica  string     `json:"naturezaJuridica"`
	CNPJ              string     `json:"cnpj"`
	RazaoSocial       string     `json:"razaoSocial"`
	NomeSocio         string     `json:"nomeSocio"`
	CNAEPrincipal     string     `json:"cnaePrincipal"`
	MatrizFilial      string     `json:"matrizFilial"`
	TemContato        string     `json:"temContato"`
	CapitalSocial     FlexString `json:"capitalSocial"`
	PorteEmpresa      string     `json:"porteEmpresa"`
	SearchMode        SearchMode `json:"searchMode"`
	CompanyLimit      FlexInt    `json:"companyLimit"`
	Page              FlexInt    `json:"page"`
}

// Criteria is a validated, normalized search request.
type Criteria struct {
	UF           string
	Situacao     string
	Motivo       string
	Qualificacao string
	Natureza     string
	CNAE         string
	Porte        string
	Segment      int
	SegmentCNAEs []string
	CNPJ         string
	RazaoSocial  string
	NomeSocio    string
	MatrizFilial string
	HasContact   *bool
	MinCapital   *decimal.Decimal
	Mode         SearchMode
	// Seed pins the random ordering so every page of one export shares it.
	// Empty means a fresh order per query.
	Seed  string
	Limit int
	Page  int
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Normalize validates f and converts it into Criteria. A CNPJ filter forces
// the limit to 1 regardless of the requested companyLimit.
func (f Filters) Normalize() (Criteria, error) {
	c := Criteria{
		UF:           strings.ToUpper(strings.TrimSpace(f.UF)),
		Situacao:     strings.TrimSpace(f.SituacaoCadastral),
		Motivo:       strings.TrimSpace(f.MotivoSituacao),
		Qualificacao: strings.TrimSpace(f.QualificacaoSocio),
		Natureza:     strings.TrimSpace(f.NaturezaJuridica),
		CNAE:         digitsOnly(f.CNAEPrincipal),
		Porte:        strings.TrimSpace(f.PorteEmpresa),
		RazaoSocial:  strings.TrimSpace(f.RazaoSocial),
		NomeSocio:    strings.TrimSpace(f.NomeSocio),
		Mode:         SearchMode(strings.ToLower(strings.TrimSpace(string(f.SearchMode)))),
		Limit:        int(f.CompanyLimit),
		Page:         int(f.Page),
	}
	if c.Mode == "" {
		c.Mode = ModeNormal
	}
	if !c.Mode.Valid() {
		return Criteria{}, invalid("searchMode inválido: %q", f.SearchMode)
	}
	if c.UF != "" && !reference.IsState(c.UF) {
		return Criteria{}, invalid("UF inválida: %q", f.UF)
	}

	if seg := strings.TrimSpace(string(f.SegmentoNegocio)); seg != "" {
		id, err := strconv.Atoi(seg)
		if err != nil {
			return Criteria{}, invalid("segmentoNegocio inválido: %q", seg)
		}
		cnaes, ok := reference.SegmentCNAEs(id)
		if !ok {
			return Criteria{}, invalid("segmentoNegocio desconhecido: %d", id)
		}
		c.Segment = id
		c.SegmentCNAEs = cnaes
	}

	switch strings.ToLower(strings.TrimSpace(f.MatrizFilial)) {
	case "":
	case "1", "matriz":
		c.MatrizFilial = "1"
	case "2", "filial":
		c.MatrizFilial = "2"
	default:
		return Criteria{}, invalid("matrizFilial inválido: %q", f.MatrizFilial)
	}

	switch strings.ToLower(strings.TrimSpace(f.TemContato)) {
	case "":
	case "sim", "true":
		v := true
		c.HasContact = &v
	case "nao", "não", "false":
		v := false
		c.HasContact = &v
	default:
		return Criteria{}, invalid("temContato inválido: %q", f.TemContato)
	}

	if raw := strings.TrimSpace(string(f.CapitalSocial)); raw != "" {
		d, err := parseAmount(raw)
		if err != nil || d.IsNegative() {
			return Criteria{}, invalid("capitalSocial inválido: %q", raw)
		}
		c.MinCapital = &d
	}

	if raw := strings.TrimSpace(f.CNPJ); raw != "" {
		c.CNPJ = digitsOnly(raw)
		if len(c.CNPJ) != 14 {
			return Criteria{}, invalid("CNPJ deve conter 14 dígitos")
		}
		c.Limit = 1
	} else {
		if c.Limit == 0 {
			c.Limit = DefaultCompanyLimit
		}
		if c.Limit < MinCompanyLimit || c.Limit > MaxCompanyLimit {
			return Criteria{}, invalid("companyLimit deve estar entre %d e %d", MinCompanyLimit, MaxCompanyLimit)
		}
	}

	if c.Page < 0 {
		return Criteria{}, invalid("page deve ser maior que zero")
	}
	if c.Page == 0 {
		c.Page = 1
	}
	return c, nil
}

// Offset is the first row of the requested page.
func (c Criteria) Offset() int { return (c.Page - 1) * PerPage }

// Window returns the offset and size of the requested page given the number
// of matching rows. size is zero past the last page.
func (c Criteria) Window(totalAvailable int64) (offset, size int) {
	offset = c.Offset()
	total := min(int64(c.Limit), totalAvailable)
	remaining := total - int64(offset)
	if remaining <= 0 {
		return offset, 0
	}
	return offset, int(min(remaining, PerPage))
}

// PartnerCap bounds the socios returned per company; large exports get fewer.
func (c Criteria) PartnerCap() int {
	switch {
	case c.Limit <= 1000:
		return 5
	case c.Limit <= 5000:
		return 3
	case c.Limit <= 10000:
		return 2
	default:
		return 1
	}
}

// Paginate builds the pagination block for totalAvailable matches.
func (c Criteria) Paginate(totalAvailable int64) Pagination {
	total := min(int64(c.Limit), totalAvailable)
	pages := int((total + PerPage - 1) / PerPage)
	return Pagination{
		CurrentPage:      c.Page,
		TotalCompanies:   total,
		TotalAvailable:   totalAvailable,
		TotalPages:       pages,
		CompaniesPerPage: PerPage,
		RequestedLimit:   c.Limit,
		HasNextPage:      c.Page < pages,
		HasPreviousPage:  c.Page > 1,
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseAmount accepts "1.000,50", "1000,50", "1000.50" and "R$ 1.000".
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount: %w", err)
	}
	return d, nil
}

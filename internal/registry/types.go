// Package registry implements company search over the CNPJ registry, both
// against the live database and against the offline sample dataset.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/empresasbrasil/internal/reference"
)

// PerPage is the fixed page size of every search response.
const PerPage = 1000

// Response sources.
const (
	SourceDatabase = "RAILWAY_DATABASE"
	SourceStatic   = "STATIC_DATA"
	SourceSample   = "SAMPLE_DATA"
)

// Money is a decimal amount serialized as a bare JSON number.
type Money struct {
	decimal.Decimal
}

// NewMoney parses s, treating "" as zero.
func NewMoney(s string) (Money, error) {
	if s == "" {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{d}, nil
}

// MarshalJSON renders the amount without quotes.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts quoted and unquoted numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	m.Decimal = d
	return nil
}

// Partner is a socio attached to a company.
type Partner struct {
	CNPJBasico                     string `json:"-"`
	Identificador                  int    `json:"identificador"`
	Nome                           string `json:"nome"`
	CPFCNPJ                        string `json:"cpf_cnpj"`
	Qualificacao                   string `json:"qualificacao"`
	DataEntrada                    string `json:"data_entrada"`
	Pais                           string `json:"pais"`
	RepresentanteLegalCPF          string `json:"representante_legal_cpf"`
	RepresentanteLegalNome         string `json:"representante_legal_nome"`
	RepresentanteLegalQualificacao string `json:"representante_legal_qualificacao"`
	FaixaEtaria                    string `json:"faixa_etaria"`
}

// Company is one establishment joined with its parent company data.
type Company struct {
	CNPJ                      string    `json:"cnpj"`
	CNPJBasico                string    `json:"cnpjBasico"`
	CNPJOrdem                 string    `json:"cnpjOrdem"`
	CNPJDV                    string    `json:"cnpjDv"`
	RazaoSocial               string    `json:"razaoSocial"`
	NomeFantasia              string    `json:"nomeFantasia"`
	MatrizFilial              string    `json:"matrizFilial"`
	SituacaoCadastral         string    `json:"situacaoCadastral"`
	SituacaoDescricao         string    `json:"situacaoDescricao"`
	DataSituacao              string    `json:"dataSituacao"`
	MotivoSituacao            string    `json:"motivoSituacao"`
	DataInicioAtividades      string    `json:"dataInicioAtividades"`
	CNAEPrincipal             string    `json:"cnaePrincipal"`
	CNAEDescricao             string    `json:"cnaeDescricao"`
	CNAESecundaria            string    `json:"cnaeSecundaria"`
	TipoLogradouro            string    `json:"tipoLogradouro"`
	Logradouro                string    `json:"logradouro"`
	Numero                    string    `json:"numero"`
	Complemento               string    `json:"complemento"`
	Bairro                    string    `json:"bairro"`
	CEP                       string    `json:"cep"`
	UF                        string    `json:"uf"`
	Municipio                 string    `json:"municipio"`
	DDD1                      string    `json:"ddd1"`
	Telefone1                 string    `json:"telefone1"`
	DDD2                      string    `json:"ddd2"`
	Telefone2                 string    `json:"telefone2"`
	DDDFax                    string    `json:"dddFax"`
	Fax                       string    `json:"fax"`
	Email                     string    `json:"email"`
	NaturezaJuridica          string    `json:"naturezaJuridica"`
	NaturezaJuridicaDescricao string    `json:"naturezaJuridicaDescricao"`
	QualificacaoResponsavel   string    `json:"qualificacaoResponsavel"`
	PorteEmpresa              string    `json:"porteEmpresa"`
	PorteDescricao            string    `json:"porteDescricao"`
	EnteFederativoResponsavel string    `json:"enteFederativoResponsavel"`
	CapitalSocial             Money     `json:"capitalSocial"`
	OpcaoSimples              string    `json:"opcaoSimples"`
	DataOpcaoSimples          string    `json:"dataOpcaoSimples"`
	DataExclusaoSimples       string    `json:"dataExclusaoSimples"`
	OpcaoMEI                  string    `json:"opcaoMei"`
	DataOpcaoMEI              string    `json:"dataOpcaoMei"`
	DataExclusaoMEI           string    `json:"dataExclusaoMei"`
	Socios                    []Partner `json:"socios"`
	QuantidadeSocios          int       `json:"quantidadeSocios"`
}

// Decorate fills the derived fields of a freshly scanned row.
func (c *Company) Decorate() {
	c.CNPJ = c.CNPJBasico + c.CNPJOrdem + c.CNPJDV
	c.NomeFantasia = CleanTradeName(c.NomeFantasia)
	switch c.MatrizFilial {
	case "1":
		c.MatrizFilial = "Matriz"
	case "2":
		c.MatrizFilial = "Filial"
	}
	if c.SituacaoDescricao == "" {
		c.SituacaoDescricao = reference.StatusDescription(c.SituacaoCadastral)
	}
	if c.CNAEDescricao == "" {
		c.CNAEDescricao = reference.CNAEDescription(c.CNAEPrincipal)
	}
	if c.NaturezaJuridicaDescricao == "" {
		c.NaturezaJuridicaDescricao = reference.Describe(reference.LegalNatures(), c.NaturezaJuridica)
	}
	if c.PorteDescricao == "" {
		c.PorteDescricao = reference.CompanySizeDescription(c.PorteEmpresa)
	}
	if c.Socios == nil {
		c.Socios = []Partner{}
	}
	c.QuantidadeSocios = len(c.Socios)
}

// LookupTable names a code/description table of the registry schema.
type LookupTable string

// Lookup tables surfaced as filter options.
const (
	LookupMotives        LookupTable = "motivo"
	LookupQualifications LookupTable = "qualificacao_socio"
	LookupLegalNatures   LookupTable = "natureza_juridica"
)

// Store answers registry queries from one data source.
type Store interface {
	// Search returns at most limit companies starting at offset, with at
	// most c.PartnerCap() partners each.
	Search(ctx context.Context, c Criteria, offset, limit int) ([]Company, error)
	Count(ctx context.Context, c Criteria) (int64, error)
	Lookup(ctx context.Context, table LookupTable) ([]reference.Option, error)
}

// Source yields the live store when the database is connected.
type Source func() (Store, bool)

// Pagination describes the page window of a search response.
type Pagination struct {
	CurrentPage      int   `json:"currentPage"`
	TotalCompanies   int64 `json:"totalCompanies"`
	TotalAvailable   int64 `json:"totalAvailable"`
	TotalPages       int   `json:"totalPages"`
	CompaniesPerPage int   `json:"companiesPerPage"`
	RequestedLimit   int   `json:"requestedLimit"`
	HasNextPage      bool  `json:"hasNextPage"`
	HasPreviousPage  bool  `json:"hasPreviousPage"`
}

// Result is one page of search output.
type Result struct {
	Companies  []Company
	Pagination Pagination
	QueryTime  time.Duration
	Offline    bool
	Source     string
}

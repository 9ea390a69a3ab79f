package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var csvHeader = []string{
	"CNPJ", "Razão Social", "Nome Fantasia", "Matriz/Filial", "Situação", "Data Início Atividades",
	"CNAE Principal", "Descrição CNAE", "Endereço", "Bairro", "CEP", "UF", "Município",
	"Telefone 1", "Telefone 2", "Email", "Natureza Jurídica", "Porte", "Capital Social",
	"Simples", "MEI", "Sócios",
}

// CSVWriter renders companies in the spreadsheet-friendly layout used by
// Brazilian Excel installs: semicolon separated with a UTF-8 BOM.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the BOM and header row to out.
func NewCSVWriter(out io.Writer) (*CSVWriter, error) {
	if _, err := io.WriteString(out, "\ufeff"); err != nil {
		return nil, fmt.Errorf("write bom: %w", err)
	}
	w := csv.NewWriter(out)
	w.Comma = ';'
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &CSVWriter{w: w}, nil
}

// Write appends companies and flushes.
func (cw *CSVWriter) Write(companies []Company) error {
	for _, c := range companies {
		if err := cw.w.Write(csvRecord(c)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRecord(c Company) []string {
	address := strings.TrimSpace(strings.Join(nonEmpty(c.TipoLogradouro, c.Logradouro), " "))
	if c.Numero != "" {
		address += ", " + c.Numero
	}
	if c.Complemento != "" {
		address += " - " + c.Complemento
	}
	names := make([]string, 0, len(c.Socios))
	for _, p := range c.Socios {
		names = append(names, p.Nome)
	}
	return []string{
		c.CNPJ, c.RazaoSocial, c.NomeFantasia, c.MatrizFilial, c.SituacaoDescricao, c.DataInicioAtividades,
		c.CNAEPrincipal, c.CNAEDescricao, address, c.Bairro, c.CEP, c.UF, c.Municipio,
		phone(c.DDD1, c.Telefone1), phone(c.DDD2, c.Telefone2), c.Email, c.NaturezaJuridicaDescricao,
		c.PorteDescricao, c.CapitalSocial.StringFixed(2), c.OpcaoSimples, c.OpcaoMEI, strings.Join(names, " | "),
	}
}

func phone(ddd, number string) string {
	if number == "" {
		return ""
	}
	if ddd == "" {
		return number
	}
	return "(" + ddd + ") " + number
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Export streams every row within c.Limit as CSV, page by page, starting
// from page one. It returns the number of rows written. A random export is
// seeded once so its pages neither repeat nor skip rows.
func (s *Service) Export(ctx context.Context, c Criteria, out io.Writer) (int, error) {
	cw, err := NewCSVWriter(out)
	if err != nil {
		return 0, err
	}
	if c.Mode == ModeRandom && c.Seed == "" {
		c.Seed = uuid.NewString()
	}
	written := 0
	for page := 1; ; page++ {
		c.Page = page
		res, err := s.Search(ctx, c)
		if err != nil {
			return written, err
		}
		if err := cw.Write(res.Companies); err != nil {
			return written, err
		}
		written += len(res.Companies)
		if !res.Pagination.HasNextPage || len(res.Companies) == 0 {
			return written, nil
		}
	}
}

package registry

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/empresasbrasil/internal/reference"
)

// SampleSize is the number of companies in the offline dataset.
const SampleSize = 1000

// OfflineMessage accompanies every response served from sample data.
const OfflineMessage = "MODO OFFLINE: Dados de exemplo (Railway indisponível)"

// SampleStore serves the offline dataset, applying the same filters,
// ordering and partner caps as the database store.
type SampleStore struct {
	companies []Company
	shuffle   func(n int, swap func(i, j int))
}

// NewSampleStore builds the deterministic offline dataset.
func NewSampleStore() *SampleStore {
	return &SampleStore{companies: sampleCompanies(), shuffle: rand.Shuffle}
}

func sampleCompanies() []Company {
	out := make([]Company, SampleSize)
	for i := range out {
		basic := fmt.Sprintf("%08d", i)
		c := Company{
			CNPJBasico:                basic,
			CNPJOrdem:                 "0001",
			CNPJDV:                    "00",
			RazaoSocial:               fmt.Sprintf("EMPRESA EXEMPLO %d LTDA", i+1),
			NomeFantasia:              fmt.Sprintf("Exemplo %d", i+1),
			MatrizFilial:              "1",
			SituacaoCadastral:         "02",
			DataSituacao:              "20230101",
			MotivoSituacao:            "00",
			DataInicioAtividades:      "20200101",
			CNAEPrincipal:             "4781400",
			CNAEDescricao:             "Comércio varejista de artigos do vestuário e acessórios",
			TipoLogradouro:            "RUA",
			Logradouro:                fmt.Sprintf("EXEMPLO %d", i+1),
			Numero:                    fmt.Sprintf("%d", i%999+1),
			Bairro:                    "CENTRO",
			CEP:                       fmt.Sprintf("%05d000", i%99999),
			UF:                        "SP",
			Municipio:                 "7107",
			DDD1:                      "11",
			Telefone1:                 fmt.Sprintf("%04d%04d", i%9999, i%9999),
			NaturezaJuridica:          "2062",
			NaturezaJuridicaDescricao: "Sociedade Empresária Limitada",
			QualificacaoResponsavel:   "49",
			PorteEmpresa:              "01",
			CapitalSocial:             Money{decimal.NewFromInt(int64(10000 + i*1000))},
			OpcaoSimples:              "N",
			OpcaoMEI:                  "N",
		}
		if i%5 == 0 {
			c.MatrizFilial = "2"
		}
		if i%3 == 0 {
			c.Email = fmt.Sprintf("empresa%d@exemplo.com.br", i)
		}
		if i%2 == 0 {
			c.OpcaoSimples = "S"
			c.DataOpcaoSimples = "20200701"
			c.Socios = []Partner{{
				CNPJBasico:    basic,
				Identificador: 1,
				Nome:          fmt.Sprintf("SÓCIO EXEMPLO %d", i+1),
				Qualificacao:  "49",
				DataEntrada:   "20200101",
				Pais:          "BRASIL",
				FaixaEtaria:   "4",
			}}
		}
		c.Decorate()
		out[i] = c
	}
	return out
}

func (s *SampleStore) matching(c Criteria) []Company {
	var out []Company
	for _, co := range s.companies {
		if matches(c, co) {
			out = append(out, co)
		}
	}
	return out
}

func matches(c Criteria, co Company) bool {
	switch {
	case c.CNPJ != "" && co.CNPJ != c.CNPJ:
		return false
	case c.UF != "" && co.UF != c.UF:
		return false
	case len(c.SegmentCNAEs) > 0 && !slices.Contains(c.SegmentCNAEs, co.CNAEPrincipal):
		return false
	case c.CNAE != "" && co.CNAEPrincipal != c.CNAE:
		return false
	case c.Situacao != "" && co.SituacaoCadastral != c.Situacao:
		return false
	case c.Motivo != "" && co.MotivoSituacao != c.Motivo:
		return false
	case c.MatrizFilial == "1" && co.MatrizFilial != "Matriz":
		return false
	case c.MatrizFilial == "2" && co.MatrizFilial != "Filial":
		return false
	case c.Natureza != "" && co.NaturezaJuridica != c.Natureza:
		return false
	case c.Porte != "" && co.PorteEmpresa != c.Porte:
		return false
	case c.RazaoSocial != "" && !containsFold(co.RazaoSocial, c.RazaoSocial):
		return false
	case c.MinCapital != nil && co.CapitalSocial.LessThan(*c.MinCapital):
		return false
	case c.HasContact != nil && *c.HasContact != (co.Email != "" || co.Telefone1 != ""):
		return false
	}
	if c.NomeSocio != "" || c.Qualificacao != "" {
		found := false
		for _, p := range co.Socios {
			if (c.NomeSocio == "" || containsFold(p.Nome, c.NomeSocio)) &&
				(c.Qualificacao == "" || p.Qualificacao == c.Qualificacao) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(sub))
}

func (s *SampleStore) sort(rows []Company, c Criteria) {
	mode := c.Mode
	if mode == ModeRandom && c.Seed != "" {
		keys := make(map[string]string, len(rows))
		for _, r := range rows {
			sum := md5.Sum([]byte(c.Seed + r.CNPJ))
			keys[r.CNPJ] = hex.EncodeToString(sum[:])
		}
		slices.SortStableFunc(rows, func(a, b Company) int {
			if r := strings.Compare(keys[a.CNPJ], keys[b.CNPJ]); r != 0 {
				return r
			}
			return strings.Compare(a.CNPJ, b.CNPJ)
		})
		return
	}
	if mode == ModeRandom {
		s.shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		return
	}
	slices.SortStableFunc(rows, func(a, b Company) int {
		var r int
		switch mode {
		case ModeAlphabetic:
			r = strings.Compare(a.RazaoSocial, b.RazaoSocial)
		case ModeAlphabeticDesc:
			r = strings.Compare(b.RazaoSocial, a.RazaoSocial)
		case ModeNewest:
			r = strings.Compare(b.DataInicioAtividades, a.DataInicioAtividades)
		case ModeLargest:
			r = b.CapitalSocial.Cmp(a.CapitalSocial.Decimal)
		case ModeReverse:
			return strings.Compare(b.CNPJ, a.CNPJ)
		}
		if r != 0 {
			return r
		}
		return strings.Compare(a.CNPJ, b.CNPJ)
	})
}

// Search implements Store.
func (s *SampleStore) Search(_ context.Context, c Criteria, offset, limit int) ([]Company, error) {
	rows := s.matching(c)
	s.sort(rows, c)
	if offset >= len(rows) || limit <= 0 {
		return []Company{}, nil
	}
	end := min(offset+limit, len(rows))
	page := make([]Company, 0, end-offset)
	partnerCap := c.PartnerCap()
	for _, co := range rows[offset:end] {
		if len(co.Socios) > partnerCap {
			co.Socios = slices.Clone(co.Socios[:partnerCap])
			co.QuantidadeSocios = len(co.Socios)
		}
		page = append(page, co)
	}
	return page, nil
}

// Count implements Store.
func (s *SampleStore) Count(_ context.Context, c Criteria) (int64, error) {
	return int64(len(s.matching(c))), nil
}

// Lookup implements Store with the static reference lists.
func (s *SampleStore) Lookup(_ context.Context, table LookupTable) ([]reference.Option, error) {
	switch table {
	case LookupMotives:
		return reference.Motives(), nil
	case LookupQualifications:
		return reference.PartnerQualifications(), nil
	case LookupLegalNatures:
		return reference.LegalNatures(), nil
	}
	return nil, fmt.Errorf("unknown lookup table %q", table)
}

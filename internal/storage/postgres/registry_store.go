package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/empresasbrasil/internal/reference"
	"github.com/JakeFAU/empresasbrasil/internal/registry"
)

// RegistryStore answers company queries from the CNPJ registry tables.
type RegistryStore struct {
	db DB
}

// NewRegistryStore wraps db. The registry schema is read-only to this service.
func NewRegistryStore(db DB) *RegistryStore {
	return &RegistryStore{db: db}
}

// Search implements registry.Store.
func (s *RegistryStore) Search(ctx context.Context, c registry.Criteria, offset, limit int) ([]registry.Company, error) {
	q := registry.SearchQuery(c, offset, limit)
	rows, err := s.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	companies, err := pgx.CollectRows(rows, scanCompany)
	if err != nil {
		return nil, fmt.Errorf("scan companies: %w", err)
	}
	if len(companies) == 0 {
		return []registry.Company{}, nil
	}
	if err := s.attachPartners(ctx, companies, c.PartnerCap()); err != nil {
		return nil, err
	}
	for i := range companies {
		companies[i].Decorate()
	}
	return companies, nil
}

func scanCompany(row pgx.CollectableRow) (registry.Company, error) {
	var (
		c       registry.Company
		capital string
	)
	err := row.Scan(
		&c.CNPJBasico, &c.CNPJOrdem, &c.CNPJDV,
		&c.RazaoSocial, &c.NomeFantasia, &c.MatrizFilial,
		&c.SituacaoCadastral, &c.DataSituacao, &c.MotivoSituacao, &c.DataInicioAtividades,
		&c.CNAEPrincipal, &c.CNAEDescricao, &c.CNAESecundaria,
		&c.TipoLogradouro, &c.Logradouro, &c.Numero, &c.Complemento, &c.Bairro, &c.CEP, &c.UF, &c.Municipio,
		&c.DDD1, &c.Telefone1, &c.DDD2, &c.Telefone2, &c.DDDFax, &c.Fax, &c.Email,
		&c.NaturezaJuridica, &c.NaturezaJuridicaDescricao, &c.QualificacaoResponsavel,
		&c.PorteEmpresa, &c.EnteFederativoResponsavel, &capital,
		&c.OpcaoSimples, &c.DataOpcaoSimples, &c.DataExclusaoSimples,
		&c.OpcaoMEI, &c.DataOpcaoMEI, &c.DataExclusaoMEI,
	)
	if err != nil {
		return c, err
	}
	money, err := registry.NewMoney(capital)
	if err != nil {
		return c, err
	}
	c.CapitalSocial = money
	return c, nil
}

func (s *RegistryStore) attachPartners(ctx context.Context, companies []registry.Company, perCompany int) error {
	index := make(map[string][]int, len(companies))
	basics := make([]string, 0, len(companies))
	for i, c := range companies {
		if _, seen := index[c.CNPJBasico]; !seen {
			basics = append(basics, c.CNPJBasico)
		}
		index[c.CNPJBasico] = append(index[c.CNPJBasico], i)
	}
	q := registry.PartnersQuery(basics, perCompany)
	rows, err := s.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return fmt.Errorf("query partners: %w", err)
	}
	partners, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (registry.Partner, error) {
		var p registry.Partner
		err := row.Scan(&p.CNPJBasico, &p.Identificador, &p.Nome, &p.CPFCNPJ, &p.Qualificacao,
			&p.DataEntrada, &p.Pais, &p.RepresentanteLegalCPF, &p.RepresentanteLegalNome,
			&p.RepresentanteLegalQualificacao, &p.FaixaEtaria)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("scan partners: %w", err)
	}
	for _, p := range partners {
		for _, i := range index[p.CNPJBasico] {
			companies[i].Socios = append(companies[i].Socios, p)
		}
	}
	return nil
}

// Count implements registry.Store.
func (s *RegistryStore) Count(ctx context.Context, c registry.Criteria) (int64, error) {
	q := registry.CountQuery(c)
	var n int64
	if err := s.db.QueryRow(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// Lookup implements registry.Store.
func (s *RegistryStore) Lookup(ctx context.Context, table registry.LookupTable) ([]reference.Option, error) {
	q, err := registry.LookupQuery(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	opts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reference.Option, error) {
		var o reference.Option
		err := row.Scan(&o.Code, &o.Description)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return opts, nil
}

package registry

import (
	"fmt"
	"strings"
)

// Query is a parameterised SQL statement.
type Query struct {
	SQL  string
	Args []any
}

type argList struct {
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

func text(col string) string {
	return fmt.Sprintf("COALESCE(%s::text, '')", col)
}

// companyColumns is the scan order of SearchQuery rows.
var companyColumns = []string{
	"e.cnpj_basico",
	"e.cnpj_ordem",
	"e.cnpj_dv",
	text("emp.razao_social"),
	text("e.nome_fantasia"),
	text("e.identificador_matriz_filial"),
	text("e.situacao_cadastral"),
	text("e.data_situacao_cadastral"),
	text("e.motivo_situacao_cadastral"),
	text("e.data_inicio_atividade"),
	text("e.cnae_fiscal_principal"),
	text("cn.descricao"),
	text("e.cnae_fiscal_secundaria"),
	text("e.tipo_logradouro"),
	text("e.logradouro"),
	text("e.numero"),
	text("e.complemento"),
	text("e.bairro"),
	text("e.cep"),
	text("e.uf"),
	text("e.municipio"),
	text("e.ddd_1"),
	text("e.telefone_1"),
	text("e.ddd_2"),
	text("e.telefone_2"),
	text("e.ddd_fax"),
	text("e.fax"),
	text("e.correio_eletronico"),
	text("emp.natureza_juridica"),
	text("nj.descricao"),
	text("emp.qualificacao_responsavel"),
	text("emp.porte_empresa"),
	text("emp.ente_federativo_responsavel"),
	"COALESCE(emp.capital_social::text, '0')",
	text("s.opcao_pelo_simples"),
	text("s.data_opcao_simples"),
	text("s.data_exclusao_simples"),
	text("s.opcao_mei"),
	text("s.data_opcao_mei"),
	text("s.data_exclusao_mei"),
}

// CompanyColumnCount is the number of columns SearchQuery selects.
var CompanyColumnCount = len(companyColumns)

const baseFrom = `FROM estabelecimento e
JOIN empresas emp ON emp.cnpj_basico = e.cnpj_basico
LEFT JOIN simples s ON s.cnpj_basico = e.cnpj_basico`

const lookupJoins = `
LEFT JOIN cnae cn ON cn.codigo = e.cnae_fiscal_principal
LEFT JOIN natureza_juridica nj ON nj.codigo = emp.natureza_juridica`

func where(c Criteria, a *argList) string {
	var conds []string
	if c.CNPJ != "" {
		conds = append(conds,
			"e.cnpj_basico = "+a.add(c.CNPJ[:8]),
			"e.cnpj_ordem = "+a.add(c.CNPJ[8:12]),
			"e.cnpj_dv = "+a.add(c.CNPJ[12:]),
		)
	}
	if c.UF != "" {
		conds = append(conds, "e.uf = "+a.add(c.UF))
	}
	if len(c.SegmentCNAEs) > 0 {
		conds = append(conds, "e.cnae_fiscal_principal = ANY("+a.add(c.SegmentCNAEs)+")")
	}
	if c.CNAE != "" {
		conds = append(conds, "e.cnae_fiscal_principal = "+a.add(c.CNAE))
	}
	if c.Situacao != "" {
		conds = append(conds, "e.situacao_cadastral = "+a.add(c.Situacao))
	}
	if c.Motivo != "" {
		conds = append(conds, "e.motivo_situacao_cadastral = "+a.add(c.Motivo))
	}
	if c.MatrizFilial != "" {
		conds = append(conds, "e.identificador_matriz_filial = "+a.add(c.MatrizFilial))
	}
	if c.Natureza != "" {
		conds = append(conds, "emp.natureza_juridica = "+a.add(c.Natureza))
	}
	if c.Porte != "" {
		conds = append(conds, "emp.porte_empresa = "+a.add(c.Porte))
	}
	if c.RazaoSocial != "" {
		conds = append(conds, "emp.razao_social ILIKE '%' || "+a.add(c.RazaoSocial)+" || '%'")
	}
	if c.MinCapital != nil {
		conds = append(conds, "emp.capital_social >= "+a.add(c.MinCapital.String())+"::numeric")
	}
	if c.HasContact != nil {
		contact := "(COALESCE(e.correio_eletronico, '') <> '' OR COALESCE(e.telefone_1, '') <> '')"
		if *c.HasContact {
			conds = append(conds, contact)
		} else {
			conds = append(conds, "NOT "+contact)
		}
	}
	if c.NomeSocio != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM socios so WHERE so.cnpj_basico = e.cnpj_basico "+
			"AND so.nome_socio_razao_social ILIKE '%' || "+a.add(c.NomeSocio)+" || '%')")
	}
	if c.Qualificacao != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM socios sq WHERE sq.cnpj_basico = e.cnpj_basico "+
			"AND sq.qualificacao_socio = "+a.add(c.Qualificacao)+")")
	}
	if len(conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND ")
}

const cnpjOrder = "e.cnpj_basico, e.cnpj_ordem, e.cnpj_dv"

// OrderBy returns the ORDER BY expression of mode. Every mode except random
// ends with the full CNPJ so ties resolve the same way on every call.
func OrderBy(mode SearchMode) string {
	switch mode {
	case ModeRandom:
		return "RANDOM()"
	case ModeAlphabetic:
		return "emp.razao_social ASC, " + cnpjOrder
	case ModeAlphabeticDesc:
		return "emp.razao_social DESC, " + cnpjOrder
	case ModeNewest:
		return "e.data_inicio_atividade DESC NULLS LAST, " + cnpjOrder
	case ModeLargest:
		return "emp.capital_social DESC NULLS LAST, " + cnpjOrder
	case ModeReverse:
		return "e.cnpj_basico DESC, e.cnpj_ordem DESC, e.cnpj_dv DESC"
	default:
		return cnpjOrder
	}
}

// SearchQuery selects one page of companies matching c.
func SearchQuery(c Criteria, offset, limit int) Query {
	a := &argList{}
	w := where(c, a)
	order := OrderBy(c.Mode)
	if c.Mode == ModeRandom && c.Seed != "" {
		order = "md5(" + a.add(c.Seed) + " || e.cnpj_basico || e.cnpj_ordem || e.cnpj_dv), " + cnpjOrder
	}
	sql := "SELECT " + strings.Join(companyColumns, ",\n  ") + "\n" + baseFrom + lookupJoins + w +
		"\nORDER BY " + order +
		"\nLIMIT " + a.add(limit) + " OFFSET " + a.add(offset)
	return Query{SQL: sql, Args: a.args}
}

// CountQuery counts the companies matching c.
func CountQuery(c Criteria) Query {
	a := &argList{}
	w := where(c, a)
	return Query{SQL: "SELECT COUNT(*) " + baseFrom + w, Args: a.args}
}

// PartnersQuery selects up to perCompany partners for each basic CNPJ.
func PartnersQuery(basics []string, perCompany int) Query {
	sql := `SELECT cnpj_basico, identificador, nome, cpf_cnpj, qualificacao, data_entrada, pais,
  rep_cpf, rep_nome, rep_qualificacao, faixa_etaria
FROM (
  SELECT so.cnpj_basico,
    COALESCE(NULLIF(so.identificador_socio::text, '')::int, 0) AS identificador,
    ` + text("so.nome_socio_razao_social") + ` AS nome,
    ` + text("so.cpf_cnpj_socio") + ` AS cpf_cnpj,
    ` + text("so.qualificacao_socio") + ` AS qualificacao,
    ` + text("so.data_entrada_sociedade") + ` AS data_entrada,
    ` + text("so.pais") + ` AS pais,
    ` + text("so.representante_legal") + ` AS rep_cpf,
    ` + text("so.nome_do_representante") + ` AS rep_nome,
    ` + text("so.qualificacao_representante_legal") + ` AS rep_qualificacao,
    ` + text("so.faixa_etaria") + ` AS faixa_etaria,
    ROW_NUMBER() OVER (PARTITION BY so.cnpj_basico ORDER BY so.nome_socio_razao_social) AS rn
  FROM socios so
  WHERE so.cnpj_basico = ANY($1)
) ranked
WHERE rn <= $2
ORDER BY cnpj_basico, rn`
	return Query{SQL: sql, Args: []any{basics, perCompany}}
}

// LookupQuery lists a code/description table ordered by code.
func LookupQuery(table LookupTable) (Query, error) {
	switch table {
	case LookupMotives, LookupQualifications, LookupLegalNatures:
	default:
		return Query{}, fmt.Errorf("unknown lookup table %q", table)
	}
	return Query{SQL: fmt.Sprintf("SELECT codigo::text AS code, descricao AS description FROM %s ORDER BY codigo", table)}, nil
}

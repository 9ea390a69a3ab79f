// Package reference holds the static registry vocabulary used for filter
// options and as a fallback when database lookups are unavailable.
package reference

// Segment groups CNAE activity codes under a business-facing label.
type Segment struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Icon             string   `json:"icon"`
	Color            string   `json:"color"`
	Description      string   `json:"description"`
	CNAEs            []string `json:"cnaes"`
	CNAEDescriptions []string `json:"cnaeDescriptions"`
}

var segments = []Segment{
	{1, "Vestuário e Moda", "👗", "#FF6B6B", "3,5M empresas",
		[]string{"4781400", "1412601", "4782201"},
		[]string{"Comércio varejista de vestuário", "Confecção de peças", "Comércio de calçados"}},
	{2, "Alimentação e Restaurantes", "🍽️", "#4ECDC4", "3,6M empresas",
		[]string{"5611203", "5611201", "5620104", "5612100"},
		[]string{"Lanchonetes e similares", "Restaurantes", "Fornecimento domiciliar", "Serviços ambulantes"}},
	{3, "Beleza e Estética", "💄", "#F7DC6F", "2,5M empresas",
		[]string{"9602501", "9602502", "4772500"},
		[]string{"Cabeleireiros e manicure", "Atividades de estética", "Comércio de cosméticos"}},
	{4, "Comércio e Mercados", "🏪", "#58D68D", "2,5M empresas",
		[]string{"4712100", "4711301", "4729699", "4723700"},
		[]string{"Minimercados e mercearias", "Hipermercados", "Produtos alimentícios", "Comércio de bebidas"}},
	{5, "Construção Civil", "🏗️", "#F4D03F", "2,3M empresas",
		[]string{"4399103", "4321500", "4120400", "4330404", "4744099"},
		[]string{"Obras de alvenaria", "Instalação elétrica", "Construção de edifícios", "Pintura", "Materiais de construção"}},
	{6, "Transportes e Logística", "🚛", "#F8C471", "2,1M empresas",
		[]string{"4930201", "4930202", "5320202", "5229099"},
		[]string{"Transporte municipal", "Transporte intermunicipal", "Entrega rápida", "Auxiliares de transporte"}},
	{7, "Serviços Profissionais", "💼", "#D7DBDD", "2,0M empresas",
		[]string{"7319002", "8219999", "8211300", "8230001"},
		[]string{"Promoção de vendas", "Apoio administrativo", "Serviços de escritório", "Organização de eventos"}},
	{8, "Tecnologia e Informática", "💻", "#5DADE2", "0,8M empresas",
		[]string{"9511800", "4751201", "6209100", "6201501"},
		[]string{"Reparação de computadores", "Equipamentos de informática", "Desenvolvimento de software", "Desenvolvimento de sites"}},
	{9, "Saúde e Farmácias", "💊", "#A569BD", "0,7M empresas",
		[]string{"4771701", "8712300", "8630501", "8650099"},
		[]string{"Produtos farmacêuticos", "Assistência domiciliar", "Atividade médica ambulatorial", "Atividades de profissionais da área de saúde"}},
	{10, "Educação e Treinamento", "📚", "#52BE80", "1,2M empresas",
		[]string{"8599699", "8599604", "8513900", "8520100"},
		[]string{"Outras atividades de ensino", "Treinamento profissional", "Ensino fundamental", "Educação infantil"}},
	{11, "Automóveis e Oficinas", "🚗", "#EC7063", "1,0M empresas",
		[]string{"4520001", "4530703", "4511101", "4520008"},
		[]string{"Manutenção mecânica", "Peças e acessórios", "Comércio de automóveis", "Serviços de lanternagem"}},
	{12, "Organizações e Associações", "🏛️", "#BB8FCE", "4,2M empresas",
		[]string{"9492800", "9430800", "9491000", "8112500"},
		[]string{"Organizações políticas", "Associações de direitos", "Organizações religiosas", "Condomínios prediais"}},
	{13, "Varejo Especializado", "🛍️", "#7FB3D3", "1,5M empresas",
		[]string{"4789099", "4774100", "4754701", "4755502", "4744001"},
		[]string{"Outros produtos", "Artigos de óptica", "Móveis", "Armarinho", "Ferragens"}},
	{14, "Alimentação - Produção", "🍰", "#7DCEA0", "0,4M empresas",
		[]string{"1091102", "4722901", "1011201", "1012101"},
		[]string{"Padaria e confeitaria", "Açougues", "Abate de bovinos", "Frigoríficos"}},
	{15, "Serviços Domésticos", "🏠", "#F1948A", "0,5M empresas",
		[]string{"9700500", "8121400", "9601701", "8129900"},
		[]string{"Serviços domésticos", "Limpeza de prédios", "Reparação de calçados", "Outras atividades de limpeza"}},
	{16, "Comunicação e Mídia", "📱", "#AED6F1", "0,3M empresas",
		[]string{"5320201", "7311400", "6020300", "7319004"},
		[]string{"Serviços de malote", "Agências de publicidade", "Programação de TV", "Locação de stands"}},
	{17, "Agricultura e Pecuária", "🌾", "#82E0AA", "0,2M empresas",
		[]string{"0111301", "0151201", "0113001", "0161001"},
		[]string{"Cultivo de milho", "Criação de bovinos", "Cultivo de cana", "Atividades de apoio à agricultura"}},
	{18, "Energia e Utilities", "⚡", "#F7DC6F", "0,1M empresas",
		[]string{"3511500", "3600601", "3514000", "4221901"},
		[]string{"Geração de energia", "Captação de água", "Distribuição de energia", "Obras de utilidade pública"}},
	{19, "Finanças e Seguros", "💰", "#85C1E9", "0,1M empresas",
		[]string{"6422100", "6550200", "6420400", "6491800"},
		[]string{"Bancos múltiplos", "Seguros de vida", "Cooperativas de crédito", "Outras intermediações financeiras"}},
	{20, "Outros Setores", "📋", "#BDC3C7", "Demais atividades",
		[]string{"8888888", "0000000"},
		[]string{"Atividade não informada", "Outros códigos"}},
}

// BusinessSegments returns a copy of the segment table in display order.
func BusinessSegments() []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// SegmentCNAEs returns the CNAE codes that make up the segment with the given id.
func SegmentCNAEs(id int) ([]string, bool) {
	for _, s := range segments {
		if s.ID == id {
			codes := make([]string, len(s.CNAEs))
			copy(codes, s.CNAEs)
			return codes, true
		}
	}
	return nil, false
}

// CNAEDescription looks up the short label of a CNAE code across all segments.
func CNAEDescription(code string) string {
	for _, s := range segments {
		for i, c := range s.CNAEs {
			if c == code && i < len(s.CNAEDescriptions) {
				return s.CNAEDescriptions[i]
			}
		}
	}
	return ""
}

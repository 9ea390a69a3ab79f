package reference

// Option is a code/description pair rendered in filter dropdowns.
type Option struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var states = []Option{
	{"SP", "São Paulo"},
	{"MG", "Minas Gerais"},
	{"RJ", "Rio de Janeiro"},
	{"AC", "Acre"},
	{"AL", "Alagoas"},
	{"AP", "Amapá"},
	{"AM", "Amazonas"},
	{"BA", "Bahia"},
	{"CE", "Ceará"},
	{"DF", "Distrito Federal"},
	{"ES", "Espírito Santo"},
	{"GO", "Goiás"},
	{"MA", "Maranhão"},
	{"MT", "Mato Grosso"},
	{"MS", "Mato Grosso do Sul"},
	{"PA", "Pará"},
	{"PB", "Paraíba"},
	{"PR", "Paraná"},
	{"PE", "Pernambuco"},
	{"PI", "Piauí"},
	{"RN", "Rio Grande do Norte"},
	{"RS", "Rio Grande do Sul"},
	{"RO", "Rondônia"},
	{"RR", "Roraima"},
	{"SC", "Santa Catarina"},
	{"SE", "Sergipe"},
	{"TO", "Tocantins"},
}

// Only the statuses worth filtering on are offered; the rest are still described.
var registrationStatuses = []Option{
	{"02", "Ativa"},
	{"08", "Baixada"},
	{"04", "Inapta"},
}

var statusDescriptions = map[string]string{
	"01": "Nula",
	"02": "Ativa",
	"03": "Suspensa",
	"04": "Inapta",
	"08": "Baixada",
}

var motives = []Option{
	{"00", "Sem Restrição"},
	{"01", "Extinção por Encerramento Liquidação Voluntária"},
	{"02", "Incorporação"},
	{"03", "Fusão"},
	{"04", "Cisão Total"},
	{"05", "Extinção de Filial"},
	{"06", "Caducidade"},
	{"07", "Falta de Pluralidade de Sócios"},
	{"08", "Omissa em Declarações"},
	{"09", "Falência"},
	{"10", "Concordata"},
	{"11", "Liquidação Judicial"},
	{"12", "Liquidação Extrajudicial"},
}

var partnerQualifications = []Option{
	{"05", "Administrador"},
	{"08", "Conselheiro de Administração"},
	{"10", "Diretor"},
	{"16", "Presidente"},
	{"17", "Procurador"},
	{"22", "Sócio"},
	{"49", "Sócio-Administrador"},
	{"54", "Fundador"},
	{"65", "Titular Pessoa Física"},
}

var legalNatures = []Option{
	{"1015", "Empresa Individual de Responsabilidade Limitada"},
	{"2135", "Sociedade Limitada"},
	{"2062", "Sociedade Empresária Limitada"},
	{"2240", "Sociedade Simples Limitada"},
	{"1244", "Empresário Individual"},
	{"2054", "Sociedade Anônima Aberta"},
	{"2070", "Sociedade Anônima Fechada"},
}

var companySizes = map[string]string{
	"00": "Não informado",
	"01": "Microempresa",
	"03": "Empresa de Pequeno Porte",
	"05": "Demais",
}

func clone(in []Option) []Option {
	out := make([]Option, len(in))
	copy(out, in)
	return out
}

// States returns the federative units, most searched first.
func States() []Option { return clone(states) }

// IsState reports whether code is a known UF.
func IsState(code string) bool {
	for _, s := range states {
		if s.Code == code {
			return true
		}
	}
	return false
}

// RegistrationStatuses returns the filterable situacao cadastral codes.
func RegistrationStatuses() []Option { return clone(registrationStatuses) }

// StatusDescription describes a situacao cadastral code, or returns "" when unknown.
func StatusDescription(code string) string { return statusDescriptions[code] }

// Motives returns the static motivo situacao list.
func Motives() []Option { return clone(motives) }

// PartnerQualifications returns the static qualificacao socio list.
func PartnerQualifications() []Option { return clone(partnerQualifications) }

// LegalNatures returns the static natureza juridica list.
func LegalNatures() []Option { return clone(legalNatures) }

// Describe finds the description of code in opts.
func Describe(opts []Option, code string) string {
	for _, o := range opts {
		if o.Code == code {
			return o.Description
		}
	}
	return ""
}

// CompanySizeDescription describes a porte empresa code.
func CompanySizeDescription(code string) string { return companySizes[code] }

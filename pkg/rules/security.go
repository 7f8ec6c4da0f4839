package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

// SecurityPredicate devolve a expressão CEL que decide se a requisição apresenta
// a credencial do esquema. x-mock-predicate, quando presente, é usado como está.
// Apenas a presença e o formato da credencial são verificados.
func SecurityPredicate(scheme *contract.SecurityScheme) (string, error) {
	if scheme == nil {
		return "", fmt.Errorf("esquema de segurança ausente")
	}
	if scheme.Predicate != "" {
		return scheme.Predicate, nil
	}

	switch scheme.Type {
	case "apiKey":
		var variable, name string
		switch scheme.In {
		case "header":
			variable, name = "header", strings.ToLower(scheme.Name)
		case "query":
			variable, name = "query", scheme.Name
		case "cookie":
			variable, name = "cookie", scheme.Name
		default:
			return "", fmt.Errorf("apiKey com localização '%s' não suportada", scheme.In)
		}
		key := quote(name)
		return fmt.Sprintf("%s in %s && %s[%s] != ''", key, variable, variable, key), nil

	case "http":
		return authorizationPredicate(scheme.Scheme), nil

	case "oauth2", "openIdConnect":
		return authorizationPredicate("bearer"), nil
	}
	return "", fmt.Errorf("tipo de esquema '%s' não suportado", scheme.Type)
}

func authorizationPredicate(authScheme string) string {
	pattern := `(?i)^` + regexp.QuoteMeta(authScheme) + `\s+\S+`
	return fmt.Sprintf("'authorization' in header && header['authorization'].matches(%s)", quote(pattern))
}

// quote gera um literal de string CEL entre aspas simples.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

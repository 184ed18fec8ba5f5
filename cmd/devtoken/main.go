// devtoken emite un JWT firmado con JWT_SECRET: sirve para crear el primer admin
// (POST /api/auth/register) y para probar la API en local.
//
// Uso: go run ./cmd/devtoken --user u-1 --role bodeguero [--minutes 60]
package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/Kardex-api/pkg/config"
	"github.com/jhoicas/Kardex-api/pkg/jwt"
	"github.com/spf13/pflag"
)

func main() {
	user := pflag.String("user", "dev", "user_id del token")
	role := pflag.String("role", "admin", "rol: admin | bodeguero | produccion")
	minutes := pflag.Int("minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION)")
	pflag.Parse()

	switch *role {
	case "admin", "bodeguero", "produccion":
	default:
		fmt.Fprintf(os.Stderr, "Rol desconocido: %s\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	exp := *minutes
	if exp <= 0 {
		exp = cfg.JWT.Expiration
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *user, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

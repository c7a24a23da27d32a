package docs

import (
	"embed"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerFS embed.FS

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             resolveSwaggerHost(),
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "trg-remote API",
	Description:      "Peer table, torrent selection and daemon preferences of a remote Transmission session",
	InfoInstanceName: "swagger",
}

func init() {
	data, err := swaggerFS.ReadFile("swagger.json")
	if err != nil {
		panic(fmt.Sprintf("docs: swagger.json missing: %v", err))
	}
	SwaggerInfo.SwaggerTemplate = string(data)
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// JSONHandler serves the rendered document, template fields filled in.
func JSONHandler(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, "swagger spec not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

func resolveSwaggerHost() string {
	host := os.Getenv("SWAGGER_HOST")
	if host == "" {
		host = os.Getenv("SERVER_HOST")
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		return host
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	if port == "80" || port == "443" {
		return host
	}
	return host + ":" + port
}

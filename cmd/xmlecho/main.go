// Command xmlecho runs the functions of this module on a local Functions
// Framework server. Select one with FUNCTION_TARGET, e.g.
// FUNCTION_TARGET=HandleXMLEcho.
package main

import (
	"log"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	_ "github.com/takotakot/xml_echo/xmlecho"
	_ "github.com/takotakot/xml_echo/xmlstore"
)

func main() {
	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	hostname := ""
	if localOnly := os.Getenv("LOCAL_ONLY"); localOnly == "true" {
		hostname = "127.0.0.1"
	}
	if err := funcframework.StartHostPort(hostname, port); err != nil {
		log.Fatalf("funcframework.StartHostPort: %v\n", err)
	}
}

//go:generate go run ./internal/tools/contentgen -o content.example.yaml -force

package hackterm

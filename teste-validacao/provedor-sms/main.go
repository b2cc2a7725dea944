package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provedor de SMS falso para validar o verifyd com DISPATCHER=http.
// PROVEDOR_FALHAR=true faz toda chamada responder 502 (testa o reset de cooldown).
func main() {
	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	fail, _ := strconv.ParseBool(os.Getenv("PROVEDOR_FALHAR"))

	http.HandleFunc("POST /v1/otp", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			To string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.To == "" {
			http.Error(w, "campo 'to' obrigatório", http.StatusBadRequest)
			return
		}
		if fail {
			lg.Warn("falha simulada", zap.String("to", body.To))
			http.Error(w, "provedor indisponível", http.StatusBadGateway)
			return
		}

		id := uuid.NewString()
		lg.Info("código enviado",
			zap.String("to", body.To),
			zap.String("id", id),
			zap.String("idempotency_key", r.Header.Get("Idempotency-Key")),
		)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	})

	lg.Info("provedor SMS falso rodando em http://localhost:8082/v1/otp")
	if err := http.ListenAndServe(":8082", nil); err != nil {
		lg.Fatal("erro ao subir o servidor", zap.Error(err))
	}
}

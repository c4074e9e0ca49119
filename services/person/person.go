// Package person looks company registration data up by CNPJ on the public
// BrasilAPI-compatible registry.
package person

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

// lookupTimeout bounds a single registry call end to end.
const lookupTimeout = 15 * time.Second

// DefaultBaseURL is the public registry endpoint.
const DefaultBaseURL = "https://brasilapi.com.br/api/cnpj/v1"

var (
	// ErrCNPJInvalid marks input that is not a 14-digit CNPJ.
	ErrCNPJInvalid = errors.New("CNPJ inválido")
	// ErrCNPJNotFound marks a CNPJ unknown to the registry.
	ErrCNPJNotFound = errors.New("CNPJ não encontrado")
	// ErrCNPJTimeout marks a registry call that exceeded the time budget.
	ErrCNPJTimeout = errors.New("Tempo limite excedido ao consultar o CNPJ")

	errLookup = errors.New("Não foi possível consultar o CNPJ")

	nonDigits = regexp.MustCompile(`\D`)
)

// Company is the registry record for a CNPJ.
type Company struct {
	CNPJ         string `json:"cnpj"`
	LegalName    string `json:"razao_social"`
	TradeName    string `json:"nome_fantasia"`
	Status       string `json:"descricao_situacao_cadastral"`
	OpenedAt     string `json:"data_inicio_atividade"`
	LegalNature  string `json:"natureza_juridica"`
	Email        string `json:"email"`
	Phone        string `json:"ddd_telefone_1"`
	ZipCode      string `json:"cep"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"municipio"`
	State        string `json:"uf"`
}

// NormalizeCNPJ strips formatting and validates the digit count.
func NormalizeCNPJ(raw string) (string, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) != 14 {
		return "", ErrCNPJInvalid
	}
	return digits, nil
}

// Service queries the registry. Zero value is not usable; construct with
// NewService.
type Service struct {
	client  *http.Client
	baseURL string
}

// NewService builds a registry client. An empty baseURL selects the public
// registry.
func NewService(baseURL string) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		client:  &http.Client{Timeout: lookupTimeout},
		baseURL: baseURL,
	}
}

// Lookup validates the CNPJ locally, then fetches the registry record. The
// input is validated before any network traffic so malformed documents
// never reach the upstream.
func (s *Service) Lookup(ctx context.Context, raw string) (*Company, error) {
	cnpj, err := NormalizeCNPJ(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.baseURL, cnpj), nil)
	if err != nil {
		return nil, errLookup
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			logrus.WithField("cnpj", cnpj).Warn("consulta de CNPJ expirou")
			return nil, ErrCNPJTimeout
		}
		logrus.WithError(err).WithField("cnpj", cnpj).Error("erro ao consultar CNPJ")
		return nil, errLookup
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCNPJNotFound
	case resp.StatusCode != http.StatusOK:
		logrus.WithFields(logrus.Fields{
			"cnpj":   cnpj,
			"status": resp.StatusCode,
		}).Error("registro de CNPJ respondeu com erro")
		return nil, errLookup
	}

	var company Company
	if err := json.NewDecoder(resp.Body).Decode(&company); err != nil {
		logrus.WithError(err).WithField("cnpj", cnpj).Error("resposta de CNPJ malformada")
		return nil, errLookup
	}
	return &company, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

// Package jsonstore persiste listas tipadas como arquivos JSON, um
// arquivo por namespace (data/<key>.json). Chave ausente devolve lista
// vazia; arquivo corrompido também devolve lista vazia, mas é logado
// distintamente da inicialização normal. Save sobrescreve a coleção
// inteira (last-write-wins).
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Store é o acesso bruto aos arquivos de dados. As operações tipadas
// ficam nas funções genéricas LoadList/SaveList e nos adaptadores.
type Store struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// New cria o store sobre o diretório de dados, criando-o se necessário.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// LoadDocument lê o arquivo do namespace em v. Devolve false (sem erro)
// quando o arquivo não existe ou está corrompido.
func (s *Store) LoadDocument(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		// Corrupção não é fatal, mas não é inicialização normal.
		s.logger.Warn("corrupt data file, treating as empty",
			zap.String("namespace", key),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// SaveDocument grava v como o conteúdo completo do namespace, via
// arquivo temporário + rename.
func (s *Store) SaveDocument(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// LoadList carrega a lista do namespace; ausência ou corrupção viram
// lista vazia.
func LoadList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var list []T
	if _, err := s.LoadDocument(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveList sobrescreve a lista do namespace.
func SaveList[T any](ctx context.Context, s *Store, key string, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	return s.SaveDocument(key, items)
}

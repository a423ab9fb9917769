package blocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Cascade/internal/llm"
)

// Registry — реестр типов блоков.
//
// Явное значение, собираемое один раз на старте процесса и
// передаваемое по ссылке в orchestrator/executor. После
// инициализации реестр только читается; динамической регистрации
// во время выполнения runs нет.
type Registry struct {
	mu     sync.RWMutex
	blocks map[string]Block
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		blocks: make(map[string]Block),
	}
}

// Deps — зависимости стандартных блоков.
type Deps struct {
	// LLM — провайдер генерации текста. nil — llm.simple работает
	// в деградированном режиме.
	LLM llm.Provider
}

// DefaultRegistry создаёт реестр со стандартным набором блоков.
func DefaultRegistry(deps Deps) (*Registry, error) {
	r := NewRegistry()

	std := []Block{
		&StartBlock{},
		&HTTPRequestBlock{},
		&GCSWriteBlock{},
		NewLLMSimpleBlock(deps.LLM),
		&UppercaseBlock{},
		&TemplateBlock{},
		&JSONGetBlock{},
		&MathAddBlock{},
		&SleepBlock{},
	}

	for _, b := range std {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register регистрирует блок в реестре.
// Повторная регистрация типа — ошибка старта процесса.
func (r *Registry) Register(b Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[b.Type()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBlockType, b.Type())
	}
	r.blocks[b.Type()] = b
	return nil
}

// Get возвращает блок по типу.
// Возвращает ErrUnknownBlockType, если тип не зарегистрирован.
func (r *Registry) Get(blockType string) (Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.blocks[blockType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockType, blockType)
	}
	return b, nil
}

// Has проверяет, зарегистрирован ли тип.
func (r *Registry) Has(blockType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.blocks[blockType]
	return exists
}

// Run находит блок по типу и выполняет его.
// Неизвестный тип — ошибка уровня узла, не паника процесса.
func (r *Registry) Run(ctx context.Context, blockType string, in *Input, rc *RunContext) (map[string]any, error) {
	b, err := r.Get(blockType)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx, in, rc)
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.blocks))
	for t := range r.blocks {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных блоков.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blocks)
}

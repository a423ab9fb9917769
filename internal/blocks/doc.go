// Package blocks содержит контракт блока, реестр типов и стандартный
// набор блоков.
//
// # Контракт
//
// Блок — именованная единица работы:
//
//	type Block interface {
//	    Type() string
//	    Run(ctx context.Context, in *Input, rc *RunContext) (map[string]any, error)
//	}
//
// Input содержит params узла, upstream (outputs прямых родителей)
// и trigger (полезную нагрузку триггера run). RunContext — только
// I/O-возможности: HTTP-клиент, blob-хранилище, логгер run.
//
// # Registry
//
// Реестр собирается один раз на старте процесса:
//
//	registry, err := blocks.DefaultRegistry(blocks.Deps{LLM: provider})
//
// Register падает на дубликате типа (ошибка инициализации);
// Run с незарегистрированным типом возвращает ErrUnknownBlockType —
// это ошибка уровня узла, не процесса.
//
// # Стандартные блоки
//
//   - start               — payload из params или триггера → {data}
//   - http.request        — исходящий HTTP-вызов → {status, headers, data}
//   - gcs.write           — запись в blob-хранилище → {gcs_uri, size}
//   - llm.simple          — вызов LLM-провайдера → {text};
//     без креда — детерминированный fallback
//   - transform.uppercase — {text} → {text}
//   - transform.template  — {{key}}-подстановка → {text}
//   - json.get            — значение по пути ключей → {value}
//   - math.add            — {a, b} → {result}
//   - util.sleep          — пауза → {slept}
//
// Блоки не хранят состояния; retry-логики нет — ошибка блока
// завершает run (частичные outputs сохраняются).
package blocks

// Package cli реализует инструмент командной строки Cascade.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Cascade API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления workflows, runs и schedules.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Cascade API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: cascade workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, create, show, update, delete, validate
//   - run: list, start, show, logs, cancel
//   - schedule: list, create, show, update, delete, enable, disable
//   - blocks: список зарегистрированных типов блоков
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli

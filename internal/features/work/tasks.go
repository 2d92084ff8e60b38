// Package work реализует мини-игру заработка (!work).
// tasks.go — набор заданий и расчёт награды. Чистая логика без БД.
package work

import (
	"math/rand"
	"strings"
)

// Task — одно задание: вопрос, ответ и множитель сложности.
type Task struct {
	Prompt     string  // Текст задания для пользователя
	Answer     string  // Ожидаемый ответ (сравнение без регистра)
	Multiplier float64 // Множитель награды за сложность
}

// Задания двух видов: викторина и набор слова на скорость.
var tasks = []Task{
	{Prompt: "Столица Франции?", Answer: "париж", Multiplier: 1.0},
	{Prompt: "Сколько сторон у шестиугольника?", Answer: "6", Multiplier: 1.0},
	{Prompt: "Химическая формула воды?", Answer: "h2o", Multiplier: 1.2},
	{Prompt: "Квадратный корень из 144?", Answer: "12", Multiplier: 1.3},
	{Prompt: "Наберите слово: привет", Answer: "привет", Multiplier: 1.0},
	{Prompt: "Наберите слово: экономика", Answer: "экономика", Multiplier: 1.3},
	{Prompt: "Наберите слово: криптовалюта", Answer: "криптовалюта", Multiplier: 1.5},
	{Prompt: "Наберите слово: лидерборд", Answer: "лидерборд", Multiplier: 1.4},
}

// PickTask возвращает случайное задание.
func PickTask() Task {
	return tasks[rand.Intn(len(tasks))]
}

// CheckAnswer сравнивает ответ пользователя с ожидаемым:
// без регистра и без окружающих пробелов.
func CheckAnswer(task Task, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), task.Answer)
}

// RewardAmount вычисляет награду: случайная база в [min, max],
// умноженная на сложность задания.
func RewardAmount(minAmount, maxAmount int64, multiplier float64) int64 {
	base := minAmount
	if maxAmount > minAmount {
		base += rand.Int63n(maxAmount - minAmount + 1)
	}
	return int64(float64(base) * multiplier)
}

// Package model はドメインモデルを定義する。
package model

// Crew は海賊団を表す。
type Crew struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Number     string `json:"number"`
	RomanName  string `json:"roman_name"`
	TotalPrime string `json:"total_prime"`
	IsYonko    string `json:"is_yonko"`
}

// Fruit は悪魔の実を表す。
// Typeは Paramecia / Zoan / Logia のいずれか。
type Fruit struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	RomanName     string `json:"roman_name"`
	Type          string `json:"type"`
	Filename      string `json:"filename"`
	TechnicalFile string `json:"technicalFile"`
}

// Character は登場キャラクターを表す。
// CrewとFruitは所属や能力を持たないキャラクターではnilになる。
type Character struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Job      string `json:"job"`
	Size     string `json:"size"`
	Birthday string `json:"birthday"`
	Age      string `json:"age"`
	Bounty   string `json:"bounty"`
	Status   string `json:"status"`
	Crew     *Crew  `json:"crew,omitempty"`
	Fruit    *Fruit `json:"fruit,omitempty"`
}

// 悪魔の実の系統。
const (
	FruitTypeParamecia = "Paramecia"
	FruitTypeZoan      = "Zoan"
	FruitTypeLogia     = "Logia"
)

// ValidFruitType は指定された系統名が既知の系統かどうかを判定する。
func ValidFruitType(t string) bool {
	switch t {
	case FruitTypeParamecia, FruitTypeZoan, FruitTypeLogia:
		return true
	default:
		return false
	}
}

package memstore

import (
	"math/rand/v2"
	"time"

	"car-inventory-api/internal/models"
)

// sampleYears is how far back generated model years may reach.
const sampleYears = 20

var sampleModels = map[string][]string{
	"Toyota":     {"Corolla", "Camry", "RAV4", "Prius"},
	"Ford":       {"Focus", "Mustang", "F-150", "Fiesta"},
	"Volkswagen": {"Golf", "Passat", "Polo", "Tiguan"},
	"Renault":    {"Clio", "Megane", "Captur"},
	"Peugeot":    {"208", "308", "3008"},
	"Honda":      {"Civic", "Accord", "CR-V"},
	"BMW":        {"3 Series", "X5", "i3"},
	"Tesla":      {"Model 3", "Model S", "Model Y"},
}

// sampleBrands fixes iteration order so a seeded rng gives repeatable output.
var sampleBrands = []string{"Toyota", "Ford", "Volkswagen", "Renault", "Peugeot", "Honda", "BMW", "Tesla"}

// sampleCars returns n valid cars without ids.
func sampleCars(rng *rand.Rand, n int) []models.Car {
	currentYear := time.Now().Year()
	cars := make([]models.Car, 0, n)
	for i := 0; i < n; i++ {
		brand := sampleBrands[rng.IntN(len(sampleBrands))]
		choices := sampleModels[brand]
		cars = append(cars, models.Car{
			Brand: brand,
			Model: choices[rng.IntN(len(choices))],
			Year:  currentYear - rng.IntN(sampleYears+1),
		})
	}
	return cars
}

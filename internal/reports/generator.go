package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/fdg312/fithub/internal/storage"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// Generator generates PDF/CSV reports
type Generator struct {
	goals    storage.NutritionGoalsStorage
	logs     storage.NutritionLogsStorage
	workouts storage.WorkoutsStorage
}

// NewGenerator creates a new report generator
func NewGenerator(goals storage.NutritionGoalsStorage, logs storage.NutritionLogsStorage, workouts storage.WorkoutsStorage) *Generator {
	return &Generator{goals: goals, logs: logs, workouts: workouts}
}

// DayRow is one calendar day of the report.
type DayRow struct {
	Date            string
	Calories        int
	ProteinG        float64
	CarbsG          float64
	FatG            float64
	Workouts        int
	WorkoutMinutes  int
	WorkoutCalories int
}

// reportData is everything a report renders.
type reportData struct {
	From     string
	To       string
	Goals    *storage.NutritionGoal
	Days     []DayRow
	Workouts []storage.Workout
}

// Summary holds calculated summary statistics
type Summary struct {
	DaysLogged       int
	AvgCalories      int
	AvgProteinG      float64
	AvgCarbsG        float64
	AvgFatG          float64
	Workouts         int
	WorkoutMinutes   int
	WorkoutCalories  int
	GoalCaloriesDays int // days within 10% of the calorie goal
}

// GenerateReport collects the user's data for [from, to] and renders it.
func (g *Generator) GenerateReport(ctx context.Context, userID uuid.UUID, from, to, format string) ([]byte, error) {
	data, err := g.collect(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return g.generatePDF(data)
	case FormatCSV:
		return g.generateCSV(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Generator) collect(ctx context.Context, userID uuid.UUID, from, to string) (*reportData, error) {
	goals, err := g.goals.GetGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", err)
	}

	logs, err := g.logs.ListLogs(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nutrition logs: %w", err)
	}

	workouts, err := g.workouts.ListWorkouts(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts: %w", err)
	}

	return &reportData{
		From:     from,
		To:       to,
		Goals:    goals,
		Days:     buildDays(from, to, logs, workouts),
		Workouts: workouts,
	}, nil
}

// buildDays returns one row per calendar day in [from, to], oldest first.
func buildDays(from, to string, logs []storage.NutritionLog, workouts []storage.Workout) []DayRow {
	start, _ := time.Parse(time.DateOnly, from)
	end, _ := time.Parse(time.DateOnly, to)

	index := make(map[string]int)
	var days []DayRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(time.DateOnly)
		index[date] = len(days)
		days = append(days, DayRow{Date: date})
	}

	for _, l := range logs {
		i, ok := index[l.Date]
		if !ok {
			continue
		}
		days[i].Calories += l.Calories
		days[i].ProteinG += l.ProteinG
		days[i].CarbsG += l.CarbsG
		days[i].FatG += l.FatG
	}
	for _, w := range workouts {
		i, ok := index[w.Date]
		if !ok {
			continue
		}
		days[i].Workouts++
		days[i].WorkoutMinutes += w.DurationMin
		days[i].WorkoutCalories += w.CaloriesKcal
	}
	return days
}

// generateCSV generates a CSV report with one row per day
func (g *Generator) generateCSV(data *reportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"date", "calories", "protein_g", "carbs_g", "fat_g",
		"calories_goal", "calories_pct",
		"workouts", "workout_minutes", "workout_calories",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	goal, pct := "", func(int) string { return "" }
	if data.Goals != nil {
		target := data.Goals.Calories
		goal = strconv.Itoa(target)
		pct = func(calories int) string { return strconv.Itoa(percentOf(calories, target)) }
	}

	for _, d := range data.Days {
		row := []string{
			d.Date,
			strconv.Itoa(d.Calories),
			formatGrams(d.ProteinG),
			formatGrams(d.CarbsG),
			formatGrams(d.FatG),
			goal,
			pct(d.Calories),
			strconv.Itoa(d.Workouts),
			strconv.Itoa(d.WorkoutMinutes),
			strconv.Itoa(d.WorkoutCalories),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF renders goals, a summary, the daily table and the workout list
func (g *Generator) generatePDF(data *reportData) ([]byte, error) {
	const font = "Helvetica"

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("FitHub report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(font, "B", 16)
	pdf.Cell(0, 10, "FitHub report")
	pdf.Ln(8)

	pdf.SetFont(font, "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", data.From, data.To))
	pdf.Ln(12)

	// Goals
	pdf.SetFont(font, "B", 14)
	pdf.Cell(0, 8, "Daily goals")
	pdf.Ln(8)
	pdf.SetFont(font, "", 10)
	if data.Goals == nil {
		pdf.Cell(0, 6, "No goals set")
		pdf.Ln(5)
	} else {
		gl := data.Goals
		pdf.Cell(0, 6, fmt.Sprintf("Calories: %d kcal (%s)", gl.Calories, gl.Source))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Protein %d g, carbs %d g, fat %d g", gl.ProteinG, gl.CarbsG, gl.FatG))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Fiber %d g, water %.1f l", gl.FiberG, gl.WaterL))
		pdf.Ln(5)
	}
	pdf.Ln(7)

	// Summary
	summary := calculateSummary(data)
	pdf.SetFont(font, "B", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont(font, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Days with food logged: %d of %d", summary.DaysLogged, len(data.Days)))
	pdf.Ln(5)
	if summary.DaysLogged > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Average intake: %d kcal, protein %.1f g, carbs %.1f g, fat %.1f g",
			summary.AvgCalories, summary.AvgProteinG, summary.AvgCarbsG, summary.AvgFatG))
		pdf.Ln(5)
	}
	if data.Goals != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Days within 10%% of calorie goal: %d", summary.GoalCaloriesDays))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Workouts: %d, %d min, %d kcal", summary.Workouts, summary.WorkoutMinutes, summary.WorkoutCalories))
	pdf.Ln(12)

	// Daily table
	pdf.SetFont(font, "B", 14)
	pdf.Cell(0, 8, "Days")
	pdf.Ln(8)
	drawDaysTable(pdf, font, data.Days)
	pdf.Ln(8)

	// Workouts
	if len(data.Workouts) > 0 {
		pdf.SetFont(font, "B", 14)
		pdf.Cell(0, 8, "Workouts")
		pdf.Ln(8)
		pdf.SetFont(font, "", 9)
		for _, w := range data.Workouts {
			line := fmt.Sprintf("%s  %s  %d min  %d kcal", w.Date, w.Type, w.DurationMin, w.CaloriesKcal)
			if w.DistanceKm > 0 {
				line += fmt.Sprintf("  %.1f km", w.DistanceKm)
			}
			if w.Note != "" {
				line += "  " + w.Note
			}
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func drawDaysTable(pdf *gofpdf.Fpdf, font string, days []DayRow) {
	pdf.SetFont(font, "B", 8)
	headers := []struct {
		title string
		width float64
	}{
		{"Date", 25}, {"kcal", 18}, {"Protein", 18}, {"Carbs", 18}, {"Fat", 18},
		{"Workouts", 20}, {"Minutes", 20}, {"Burned", 20},
	}
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(h.width, 6, h.title, "1", ln, "C", false, 0, "")
	}

	pdf.SetFont(font, "", 8)
	for _, d := range days {
		pdf.CellFormat(25, 6, d.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, strconv.Itoa(d.Calories), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatGrams(d.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatGrams(d.CarbsG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, formatGrams(d.FatG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(d.Workouts), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(d.WorkoutMinutes), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(d.WorkoutCalories), "1", 1, "C", false, 0, "")
	}
}

func calculateSummary(data *reportData) Summary {
	var s Summary
	var calories int
	var protein, carbs, fat float64

	for _, d := range data.Days {
		s.Workouts += d.Workouts
		s.WorkoutMinutes += d.WorkoutMinutes
		s.WorkoutCalories += d.WorkoutCalories

		if d.Calories == 0 && d.ProteinG == 0 && d.CarbsG == 0 && d.FatG == 0 {
			continue
		}
		s.DaysLogged++
		calories += d.Calories
		protein += d.ProteinG
		carbs += d.CarbsG
		fat += d.FatG

		if data.Goals != nil && data.Goals.Calories > 0 {
			diff := math.Abs(float64(d.Calories-data.Goals.Calories)) / float64(data.Goals.Calories)
			if diff <= 0.10 {
				s.GoalCaloriesDays++
			}
		}
	}

	if s.DaysLogged > 0 {
		n := float64(s.DaysLogged)
		s.AvgCalories = int(math.Round(float64(calories) / n))
		s.AvgProteinG = math.Round(protein/n*10) / 10
		s.AvgCarbsG = math.Round(carbs/n*10) / 10
		s.AvgFatG = math.Round(fat/n*10) / 10
	}
	return s
}

func percentOf(actual, target int) int {
	if target == 0 {
		return 0
	}
	return int(math.Round(float64(actual) * 100 / float64(target)))
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

package classify

import (
	"context"
	"math"
	"testing"
)

func TestAIDetectorEmptyText(t *testing.T) {
	d := NewAIDetector("", 0.5)
	result := d.Predict(context.Background(), "   ")
	if result.AIGenerated {
		t.Fatal("empty text flagged as AI-generated")
	}
	if result.HumanConfidence != 1.0 {
		t.Fatalf("human confidence = %.2f, want 1.0", result.HumanConfidence)
	}
}

func TestAIDetectorHeuristicStrategyWithoutModel(t *testing.T) {
	d := NewAIDetector("", 0.5)
	result := d.Predict(context.Background(), "some ordinary text here")
	if result.InferenceStatus != "heuristic" {
		t.Fatalf("inference status = %q, want heuristic without a model path", result.InferenceStatus)
	}
}

func TestAIDetectorFormalMarkersReadAsGenerated(t *testing.T) {
	d := NewAIDetector("", 0.5)
	text := "It is important to note that the aforementioned results demonstrate a comprehensive improvement. Furthermore, the data suggests that these findings are robust. Moreover, it is worth noting that the methodology can facilitate broader adoption."

	result := d.Predict(context.Background(), text)
	if !result.AIGenerated {
		t.Fatalf("AI-marker-heavy text not flagged (ai=%.2f human=%.2f)",
			result.AIConfidence, result.HumanConfidence)
	}
	if result.AIConfidence <= result.HumanConfidence {
		t.Fatalf("ai %.2f <= human %.2f for marker-heavy text",
			result.AIConfidence, result.HumanConfidence)
	}
}

func TestAIDetectorSlangReadsAsHuman(t *testing.T) {
	d := NewAIDetector("", 0.5)
	text := "lol omg i totally forgot about that!! yeah my bad dude, i was gonna text you but i kinda fell asleep?? wtf is wrong with me"

	result := d.Predict(context.Background(), text)
	if result.AIGenerated {
		t.Fatalf("slang text flagged as AI (ai=%.2f)", result.AIConfidence)
	}
	if result.HumanConfidence <= result.AIConfidence {
		t.Fatalf("human %.2f <= ai %.2f for slang text",
			result.HumanConfidence, result.AIConfidence)
	}
}

func TestAIDetectorNoSignalsDefaultsLow(t *testing.T) {
	d := NewAIDetector("", 0.5)
	result := d.Predict(context.Background(), "The cat sat on the mat")

	if math.Abs(result.AIConfidence-0.35) > 1e-9 {
		t.Fatalf("signal-free text ai confidence = %.2f, want 0.35 default", result.AIConfidence)
	}
	if result.AIGenerated {
		t.Fatal("signal-free text flagged as AI-generated")
	}
}

func TestAIDetectorConfidencesComplement(t *testing.T) {
	d := NewAIDetector("", 0.5)
	texts := []string{
		"Furthermore, it is worth noting that this works.",
		"omg lol yeah",
		"Plain sentence without markers",
	}
	for _, text := range texts {
		result := d.Predict(context.Background(), text)
		if sum := result.AIConfidence + result.HumanConfidence; math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("Predict(%q): confidences sum to %.4f, want 1.0", text, sum)
		}
	}
}

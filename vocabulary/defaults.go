package vocabulary

import "sync"

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the built-in cardiac qualification vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		defaultVocab = MustNew(DefaultTerms(), DefaultSpecialists())
	})
	return defaultVocab
}

func DefaultTerms() []ClinicalTerm {
	return []ClinicalTerm{
		// cardiac history
		{
			Name:     "Myocardial Infarction",
			Category: CategoryHistory,
			Variants: []string{"myocardial infarction", "heart attack", "nstemi", "stemi", "mi"},
			Weight:   5,
		},
		{
			Name:     "Coronary Artery Disease",
			Category: CategoryHistory,
			Variants: []string{"coronary artery disease", "coronary disease", "ischemic heart disease", "cad"},
			Weight:   5,
		},
		{
			Name:     "Congestive Heart Failure",
			Category: CategoryHistory,
			Variants: []string{"congestive heart failure", "heart failure", "hfref", "hfpef", "chf"},
			Weight:   5,
		},
		{
			Name:     "Acute Coronary Syndrome",
			Category: CategoryHistory,
			Variants: []string{"acute coronary syndrome", "unstable angina", "acs"},
			Weight:   5,
		},
		{
			Name:     "Prior Revascularization",
			Category: CategoryHistory,
			Variants: []string{"coronary artery bypass", "coronary stent", "stent placement", "cabg", "pci"},
			Weight:   4,
		},
		{
			Name:     "Atrial Fibrillation",
			Category: CategoryHistory,
			Variants: []string{"atrial fibrillation", "atrial flutter", "a-fib", "afib"},
			Weight:   4,
		},
		{
			Name:     "Cardiomyopathy",
			Category: CategoryHistory,
			Variants: []string{"dilated cardiomyopathy", "cardiomyopathy"},
			Weight:   4,
		},

		// structural / diagnostic findings
		{
			Name:     "Abnormal EKG",
			Category: CategoryFinding,
			Variants: []string{
				"abnormal electrocardiogram", "t wave inversion", "st depression", "st elevation",
				"abnormal ekg", "abnormal ecg", "ekg abnormal", "ecg abnormal",
			},
			Weight: 5,
		},
		{
			Name:     "Abnormal Stress Test",
			Category: CategoryFinding,
			Variants: []string{"abnormal stress test", "positive stress test", "ischemia on stress testing"},
			Weight:   5,
		},
		{
			Name:     "Elevated Troponin",
			Category: CategoryFinding,
			Variants: []string{"elevated troponin", "troponin elevation", "positive troponin", "troponin leak"},
			Weight:   5,
		},
		{
			Name:     "Reduced Ejection Fraction",
			Category: CategoryFinding,
			Variants: []string{
				"reduced ejection fraction", "low ejection fraction", "systolic dysfunction",
				"lv dysfunction", "reduced ef",
			},
			Weight: 5,
		},
		{
			Name:     "Wall Motion Abnormality",
			Category: CategoryFinding,
			Variants: []string{"regional wall motion abnormality", "wall motion abnormality"},
			Weight:   5,
		},
		{
			Name:     "Valvular Disease",
			Category: CategoryFinding,
			Variants: []string{"valvular heart disease", "mitral regurgitation", "aortic stenosis", "heart murmur", "murmur"},
			Weight:   4,
		},
		{
			Name:     "Arrhythmia",
			Category: CategoryFinding,
			Variants: []string{"ventricular tachycardia", "heart block", "bradycardia", "arrhythmia"},
			Weight:   4,
		},

		// symptoms
		{
			Name:     "Chest Pain",
			Category: CategorySymptom,
			Variants: []string{
				"substernal chest pain", "chest discomfort", "chest tightness", "chest pressure",
				"chest pain", "angina",
			},
			Weight: 4,
		},
		{
			Name:     "Dyspnea",
			Category: CategorySymptom,
			Variants: []string{"shortness of breath", "dyspnea on exertion", "dyspnea", "sob"},
			Weight:   3,
		},
		{
			Name:     "Syncope",
			Category: CategorySymptom,
			Variants: []string{"syncopal episode", "near syncope", "presyncope", "passed out", "syncope", "fainting"},
			Weight:   3,
		},
		{
			Name:     "Palpitations",
			Category: CategorySymptom,
			Variants: []string{"heart racing", "palpitations", "palpitation"},
			Weight:   2,
		},
		{
			Name:     "Edema",
			Category: CategorySymptom,
			Variants: []string{"lower extremity edema", "pedal edema", "leg swelling", "edema"},
			Weight:   2,
		},
		{
			Name:     "Dizziness",
			Category: CategorySymptom,
			Variants: []string{"lightheadedness", "lightheaded", "dizziness", "dizzy"},
			Weight:   1,
		},
		{
			Name:     "Fatigue",
			Category: CategorySymptom,
			Variants: []string{"exercise intolerance", "fatigue"},
			Weight:   1,
		},

		// risk factors
		{
			Name:     "Hypertension",
			Category: CategoryRiskFactor,
			Variants: []string{"high blood pressure", "hypertension", "htn"},
			Weight:   2,
		},
		{
			Name:     "Hyperlipidemia",
			Category: CategoryRiskFactor,
			Variants: []string{"hypercholesterolemia", "high cholesterol", "hyperlipidemia", "dyslipidemia", "hld"},
			Weight:   2,
		},
		{
			Name:     "Diabetes",
			Category: CategoryRiskFactor,
			Variants: []string{
				"diabetes mellitus", "type 2 diabetes", "type 1 diabetes", "non-diabetic", "nondiabetic",
				"diabetic", "diabetes", "t2dm",
			},
			Weight: 2,
		},
		{
			Name:     "Tobacco Use",
			Category: CategoryRiskFactor,
			Variants: []string{
				"current smoker", "former smoker", "never smoker", "tobacco use", "non-smoker", "nonsmoker",
				"smoking", "smoker", "tobacco",
			},
			Weight: 2,
		},
		{
			Name:     "Obesity",
			Category: CategoryRiskFactor,
			Variants: []string{"morbid obesity", "obesity", "obese"},
			Weight:   1,
		},
		{
			Name:     "Chronic Kidney Disease",
			Category: CategoryRiskFactor,
			Variants: []string{"chronic kidney disease", "renal insufficiency", "ckd"},
			Weight:   1,
		},
	}
}

// DefaultSpecialists lists specialists most credible first; detection stops
// at the first variant found, so this order is the precedence order.
func DefaultSpecialists() []Specialist {
	return []Specialist{
		{
			Name:     "Cardiology",
			Variants: []string{"interventional cardiology", "electrophysiology", "cardiologist", "cardiology"},
			Priority: 1,
			Weight:   1.0,
		},
		{
			Name:     "Cardiothoracic Surgery",
			Variants: []string{"cardiothoracic surgery", "cardiac surgery", "ctsurg"},
			Priority: 1,
			Weight:   0.95,
		},
		{
			Name:     "Emergency Medicine",
			Variants: []string{"emergency department", "emergency medicine", "emergency room", "ed note", "ed visit", "ed"},
			Priority: 2,
			Weight:   0.8,
		},
		{
			Name:     "Internal Medicine",
			Variants: []string{"internal medicine", "hospitalist", "internist"},
			Priority: 2,
			Weight:   0.75,
		},
		{
			Name:     "Primary Care",
			Variants: []string{"general practitioner", "family medicine", "primary care", "pcp"},
			Priority: 3,
			Weight:   0.6,
		},
		{
			Name:     "Urgent Care",
			Variants: []string{"urgent care"},
			Priority: 3,
			Weight:   0.55,
		},
		{
			Name:     "Orthopedics",
			Variants: []string{"orthopedic surgery", "orthopedics", "orthopaedics"},
			Priority: 4,
			Weight:   0.3,
		},
		{
			Name:     "Dermatology",
			Variants: []string{"dermatology", "dermatologist"},
			Priority: 4,
			Weight:   0.3,
		},
		{
			Name:     "Physical Therapy",
			Variants: []string{"physical therapy", "physiotherapy"},
			Priority: 4,
			Weight:   0.25,
		},
	}
}

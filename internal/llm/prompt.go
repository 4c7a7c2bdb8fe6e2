package llm

import "strings"

// ClassificationSystemPrompt sets up the signature rubric.
const ClassificationSystemPrompt = `You are an expert in document analysis and signature detection.
Your task is to analyze images and determine if they contain human signatures.

A human signature typically has these characteristics:
- Handwritten text or marks made by a person (usually their name or initials)
- Flowing, cursive-like strokes
- Personal style and unique characteristics
- Usually appears at the bottom of documents near "signature" labels
- May include printed name nearby
- Often irregular and organic in appearance

IMPORTANT: Be conservative in counting signatures. Only count distinct, separate signature
instances. If you see printed names, stamps, or simple initials, be cautious about classifying
them as full signatures.

NOT signatures:
- Printed text or names
- Logos or stamps (unless they contain handwritten elements)
- Digital signatures (unless they represent handwritten signatures)
- Random marks or drawings
- Form fields or checkboxes
- Simple initials (unless clearly signature-style)`

// ClassificationUserPrompt asks for the itemized verdict.
const ClassificationUserPrompt = `Analyze this image and determine if it contains human signatures.

Classify each mark by kind; only "full_signature" marks are counted as signatures:

full_signature: complete handwritten name or elaborate signature with flowing strokes
initials: simple initials or short marks (1-3 characters)
mark: simple marks, dots, or basic strokes that are not full names
stamp: printed stamps or seals (not handwritten)

Be conservative: if unsure whether something is a full signature or just initials or a mark,
classify it as the lesser kind.

Return ONLY a JSON object with this structure:
{
  "is_signature": true/false,
  "confidence": 0.0-1.0,
  "total_mark_count": number_of_marks_found,
  "full_signature_count": number_of_full_signatures_only,
  "reasoning": "explanation focusing on full signatures vs other marks",
  "signature_characteristics": ["observed", "characteristics"],
  "marks": [
    {
      "position_description": "where this mark is located",
      "kind": "full_signature|initials|mark|stamp",
      "description": "what this mark looks like",
      "characteristics": ["specific", "characteristics"]
    }
  ],
  "alternative_classification": "what this might be if not signatures"
}`

// EntitySystemPrompt frames the lab-report extraction.
const EntitySystemPrompt = `You are an AI assistant specialized in extracting information from laboratory reports and certificates of analysis.
Extract the exact values for the requested entities. If you cannot find a value, respond with "Not found".
Pay close attention to the specific field names and formats requested.`

const entityInstructions = `Extract the following entities from this laboratory report / certificate of analysis text:

1. Our Ref: from "Our Ref", "File No" or similar reference fields
2. Company Name: the company or laboratory issuing the certificate (usually at the top)
3. Lab Report Creation Date: in DD/MM/YYYY format (look for a "Date:" field, convert if needed)
4. Subject: from "Subject", "Type of Product" or "Product Type"
5. Sample Reference: from "Sample Reference", "Sample Description", "Batch No" or similar
6. Names and Designations: ACTUAL READABLE NAMES (not single letters or symbols) with their roles.
   Look near "QA APPROVED", "QC PASSED", "Certified by", "Issued by" and in "Name/ Signature"
   sections. Ignore unclear markings. Match each name with its designation.
7. Test Results: every test parameter with unit, test method, result, specification and pass/fail`

const entityShape = `Return only a valid JSON object with these keys:
{
  "our_ref": "value or Not found",
  "company_name": "value or Not found",
  "lab_report_creation_date": "DD/MM/YYYY or Not found",
  "subject": "value or Not found",
  "sample_reference": "value or Not found",
  "names_and_designations": [{"name": "FULL NAME", "designation": "JOB TITLE/ROLE"}],
  "test_results": [
    {
      "parameter": "test parameter name",
      "unit": "unit of measurement",
      "test_method": "test method used",
      "result": "actual result value",
      "specification": "specification/limit if available",
      "pass_fail": "Pass/Fail status if available"
    }
  ]
}`

// maxEntityText caps how much report text goes into one prompt.
const maxEntityText = 60000

// BuildEntityUserPrompt packages the document text with the extraction instructions.
func BuildEntityUserPrompt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxEntityText {
		text = text[:maxEntityText] + "\n…(truncated)"
	}

	var b strings.Builder
	b.WriteString(entityInstructions)
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(entityShape)
	return b.String()
}

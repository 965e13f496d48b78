package pipeline

import (
	"github.com/joseph-ayodele/dist1-extractor/constants"
)

// Supported message languages.
const (
	LangEN = "en"
	LangJA = "ja"
)

// Text keys shared by the front ends.
const (
	TextTitle          = "title"
	TextGuide          = "guide"
	TextFolder         = "folder"
	TextStart          = "start"
	TextRetry          = "retry"
	TextWorkbookSaved  = "excel_saved"
	TextCSVSaved       = "ocr_saved"
	TextError          = "error"
	TextWorkbookFailed = "excel_failed"
)

var stageText = map[string]map[constants.Stage]string{
	LangEN: {
		constants.StageCup:      "Processing cup images...",
		constants.StagePlunger:  "Processing plunger images...",
		constants.StageWorkbook: "Writing to Excel...",
		constants.StageDone:     "Done!",
	},
	LangJA: {
		constants.StageCup:      "cup画像を処理中...",
		constants.StagePlunger:  "plunger画像を処理中...",
		constants.StageWorkbook: "Excelに保存中...",
		constants.StageDone:     "完了！",
	},
}

var uiText = map[string]map[string]string{
	LangEN: {
		TextTitle: "Easy OCR to Excel",
		TextGuide: "1. Enter the folder containing 'cup', 'plunger', and 'c2025.xlsx'\n" +
			"2. Images must be named: 1-cup.png, 1-plunger-1.png, ...\n" +
			"3. Click 'Start' to extract values and write to Excel\n" +
			"4. When done, paths to Excel and OCR result files will be shown",
		TextFolder:         "Folder",
		TextStart:          "Start",
		TextRetry:          "Retry",
		TextWorkbookSaved:  "Report file saved at:",
		TextCSVSaved:       "OCR result file saved at:",
		TextError:          "System error",
		TextWorkbookFailed: "Cannot write Excel file:",
	},
	LangJA: {
		TextTitle: "かんたんOCR→Excel",
		TextGuide: "1. 「cup」「plunger」「c2025.xlsx」を含むフォルダを入力\n" +
			"2. 画像名は 1-cup.png, 1-plunger-1.png などにしてください\n" +
			"3. 「開始」をクリックすると値が抽出されExcelに保存されます\n" +
			"4. 完了後、ExcelとOCR結果ファイルのパスが表示されます",
		TextFolder:         "フォルダ",
		TextStart:          "開始",
		TextRetry:          "リトライ",
		TextWorkbookSaved:  "レポートファイル保存先：",
		TextCSVSaved:       "OCR結果ファイル保存先：",
		TextError:          "システムエラー",
		TextWorkbookFailed: "Excelファイルに書き込めません：",
	},
}

// NormalizeLang maps anything but "ja" to English.
func NormalizeLang(lang string) string {
	if lang == LangJA {
		return LangJA
	}
	return LangEN
}

// Message returns the status line shown when stage starts.
func Message(lang string, stage constants.Stage) string {
	return stageText[NormalizeLang(lang)][stage]
}

// Text returns a front-end label, falling back to English, then to the key.
func Text(lang, key string) string {
	if s, ok := uiText[NormalizeLang(lang)][key]; ok {
		return s
	}
	if s, ok := uiText[LangEN][key]; ok {
		return s
	}
	return key
}

// Texts returns the whole label table for lang.
func Texts(lang string) map[string]string {
	out := make(map[string]string, len(uiText[LangEN]))
	for k := range uiText[LangEN] {
		out[k] = Text(lang, k)
	}
	return out
}

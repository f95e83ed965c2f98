package enrich

import (
	"fmt"
	"strings"
)

// PromptContext carries the labels shared by every prompt of a run.
type PromptContext struct {
	Industry string
	Market   string
	Purpose  string
}

// BasePromptRequest builds the meta-prompt for a main question: the model is
// first asked to draft a refined analysis prompt, which is then executed as a
// second call. The indirection lets the model specialize its own instructions
// per question before answering.
func BasePromptRequest(pc PromptContext, theme, category, mainQuestion string) string {
	return fmt.Sprintf(`Bạn là chuyên gia phân tích thị trường cho ngành "%s" tại thị trường "%s".

MỤC ĐÍCH NGHIÊN CỨU: %s

NGỮ CẢNH PHÂN TÍCH:
- Chủ đề chính: %s
- Lĩnh vực: %s

CÂU HỎI CẦN TRẢ LỜI: "%s"

YÊU CẦU BẮT BUỘC:
1. TRẢ LỜI TRỰC TIẾP câu hỏi ngay từ câu đầu tiên
2. FOCUS 100%% vào nội dung mà câu hỏi đang hỏi - không drift sang chủ đề khác
3. SỬ DỤNG số liệu và ví dụ cụ thể từ thị trường %s
4. KẾT THÚC bằng conclusion trả lời rõ ràng câu hỏi

CẤU TRÚC:
- Đoạn 1: Trả lời trực tiếp + evidence chính (3-4 câu)
- Đoạn 2: Phân tích deeper với data/examples (3-4 câu)
- Đoạn 3: Impact/implications và conclusion (2-3 câu)

CHỈ TẬP TRUNG: Trả lời chính xác và đầy đủ câu hỏi "%s"`,
		pc.Industry, pc.Market, pc.Purpose, theme, category, mainQuestion, pc.Market, mainQuestion)
}

// DeepReportPrompt builds the single-call prompt that integrates every
// sub-question of a main question into one expanded analysis, building on the
// base-pass content.
func DeepReportPrompt(pc PromptContext, theme, category, mainQuestion string, subQuestions []string, baseContent string) string {
	var bullets strings.Builder
	for _, sq := range subQuestions {
		fmt.Fprintf(&bullets, "- %s\n", sq)
	}
	return fmt.Sprintf(`Bạn là chuyên gia phân tích thị trường cho ngành "%s" tại thị trường "%s".

NGỮ CẢNH: %s > %s
CÂU HỎI CHÍNH CẦN TRẢ LỜI: "%s"

PHÂN TÍCH SẴN CÓ:
%s

CÁC KHÍA CẠNH CHI TIẾT CẦN PHÂN TÍCH:
%s
NHIỆM VỤ: Viết phân tích chuyên sâu trả lời câu hỏi chính "%s" bằng cách tích hợp tất cả khía cạnh chi tiết.

YÊU CẦU:
- BẮT ĐẦU NGAY với nội dung phân tích, không có câu giới thiệu
- KHÔNG sử dụng section headers hay bullet points
- Viết liền mạch như một bài phân tích chuyên nghiệp
- Sử dụng data và case studies thực tế từ thị trường %s
- Tổng cộng: 550-700 từ

KẾT THÚC với conclusion trả lời hoàn chỉnh câu hỏi chính.`,
		pc.Industry, pc.Market, theme, category, mainQuestion, baseContent, bullets.String(), mainQuestion, pc.Market)
}

// EnhancementPrompt builds the meta-prompt for enhancing one specific
// sub-question on top of existing base content.
func EnhancementPrompt(pc PromptContext, theme, category, mainQuestion, subQuestion, baseContent string) string {
	return fmt.Sprintf(`As a master prompt engineer, I need to enhance a specific section of an existing market research report for: "%s" in market: "%s".

The research purpose is: "%s"
Structure: theme: %s | category: %s | question: %s

EXISTING CONTENT TO ENHANCE:
%s

SPECIFIC ENHANCEMENT REQUEST:
%s

Create a prompt for the model to provide deep, detailed analysis specifically for the enhancement request above, while building upon the existing content. The result should be much more detailed, with specific data, examples, and actionable insights. Vietnamese answer only.`,
		pc.Industry, pc.Market, pc.Purpose, theme, category, mainQuestion, baseContent, subQuestion)
}

// CategoryPrompt builds the single prompt covering every main question of a
// category at once. Used by the category-comprehensive run mode; there is no
// meta-prompt indirection here.
func CategoryPrompt(pc PromptContext, theme, category string, mainQuestions []string) string {
	var list strings.Builder
	for i, q := range mainQuestions {
		fmt.Fprintf(&list, "%d. %s\n", i+1, q)
	}
	return fmt.Sprintf(`Bạn là chuyên gia phân tích thị trường cho ngành "%s" tại thị trường "%s".

MỤC ĐÍCH NGHIÊN CỨU: %s

NGỮ CẢNH: %s > %s

Trả lời toàn bộ các câu hỏi sau trong MỘT bài phân tích tổng hợp, liền mạch:
%s
YÊU CẦU:
- Mỗi câu hỏi được trả lời đầy đủ với số liệu cụ thể từ thị trường %s
- Viết văn xuôi chuyên nghiệp, chuyển ý tự nhiên giữa các câu hỏi
- KHÔNG lặp lại câu hỏi trước mỗi phần trả lời`,
		pc.Industry, pc.Market, pc.Purpose, theme, category, list.String(), pc.Market)
}
